package report

import (
	"fmt"
	"io"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

var (
	attendanceSummaryHeaders = []string{
		"Employee ID", "Name", "Department", "Shift", "Total Days", "Present", "Absent",
		"Late", "Attendance Rate (%)", "Working Hours", "Overtime Hours", "Avg Hours/Day",
	}
	attendanceDetailHeaders = []string{
		"Employee ID", "Name", "Date", "Shift", "Check In", "Check Out",
		"Working Hours", "Overtime Hours", "Status", "Late Minutes",
	}
	monthlyEmployeeHeaders = []string{
		"Employee ID", "Name", "Department", "Shift", "Working Days", "Present", "Absent",
		"Leave", "Late", "Attendance Rate (%)", "Working Hours", "Overtime Hours",
	}
	monthlyDepartmentHeaders = []string{
		"Department", "Employees", "Present", "Absent", "Leave", "Late",
		"Working Hours", "Overtime Hours", "Avg Attendance Rate (%)",
	}
)

// WriteAttendanceXLSX implements report.ReportService.
func (s *ReportServiceImpl) WriteAttendanceXLSX(w io.Writer, r report.AttendanceReport) error {
	f := excelize.NewFile()
	defer f.Close()

	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	title := fmt.Sprintf("Attendance Report %s - %s", r.Period.StartDate, r.Period.EndDate)
	if err := writeHeader(f, summary, title, attendanceSummaryHeaders); err != nil {
		return err
	}

	detail := "Details"
	if _, err := f.NewSheet(detail); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeHeader(f, detail, title, attendanceDetailHeaders); err != nil {
		return err
	}

	row, detailRow := 3, 3
	for _, emp := range r.EmployeeData {
		setRow(f, summary, row, []interface{}{
			emp.User.EmployeeID, emp.User.Name, emp.User.Department, emp.User.Shift,
			emp.Summary.TotalDays, emp.Summary.PresentDays, emp.Summary.AbsentDays,
			emp.Summary.LateDays, emp.Summary.AttendanceRate, emp.Summary.TotalWorkingHours,
			emp.Summary.TotalOvertimeHours, emp.Summary.AverageWorkingHours,
		})
		row++

		for _, d := range emp.Details {
			setRow(f, detail, detailRow, []interface{}{
				emp.User.EmployeeID, emp.User.Name, d.Date, d.Shift, deref(d.CheckIn), deref(d.CheckOut),
				d.WorkingHours, d.OvertimeHours, d.Status, d.LateMinutes,
			})
			detailRow++
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

// WriteMonthlySummaryXLSX implements report.ReportService.
func (s *ReportServiceImpl) WriteMonthlySummaryXLSX(w io.Writer, r report.MonthlySummary) error {
	f := excelize.NewFile()
	defer f.Close()

	employees := "Employees"
	if err := f.SetSheetName("Sheet1", employees); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	title := fmt.Sprintf("Monthly Summary %s (%s)", r.Period.MonthName, r.Department)
	if err := writeHeader(f, employees, title, monthlyEmployeeHeaders); err != nil {
		return err
	}
	for i, emp := range r.Employees {
		setRow(f, employees, i+3, []interface{}{
			emp.User.EmployeeID, emp.User.Name, emp.User.Department, emp.User.Shift,
			emp.Summary.WorkingDays, emp.Summary.PresentDays, emp.Summary.AbsentDays,
			emp.Summary.LeaveDays, emp.Summary.LateDays, emp.Summary.AttendanceRate,
			emp.Summary.TotalWorkingHours, emp.Summary.TotalOvertimeHours,
		})
	}

	departments := "Departments"
	if _, err := f.NewSheet(departments); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeHeader(f, departments, title, monthlyDepartmentHeaders); err != nil {
		return err
	}
	for i, d := range r.DepartmentStats {
		setRow(f, departments, i+3, []interface{}{
			d.Department, d.TotalEmployees, d.TotalPresentDays, d.TotalAbsentDays,
			d.TotalLeaveDays, d.TotalLateDays, d.TotalWorkingHours, d.TotalOvertimeHours,
			d.AverageAttendanceRate,
		})
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

// writeHeader puts a merged title on row 1 and the styled column headers on
// row 2.
func writeHeader(f *excelize.File, sheet, title string, headers []string) error {
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	f.SetCellValue(sheet, "A1", title)
	f.MergeCell(sheet, "A1", lastCol+"1")
	f.SetCellStyle(sheet, "A1", lastCol+"1", titleStyle)
	f.SetRowHeight(sheet, 1, 24)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A2", lastCol+"2", headerStyle)
	f.SetColWidth(sheet, "A", lastCol, 16)
	f.SetColWidth(sheet, "B", "B", 24)
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
