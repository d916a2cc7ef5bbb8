package report

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// ========================================
// ATTENDANCE REPORT
// ========================================

type AttendanceReportRequest struct {
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Department *string `json:"department,omitempty"`
	UserID     *string `json:"user_id,omitempty"`
	Format     string  `json:"format"`

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func (r *AttendanceReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.StartDate == "" || r.EndDate == "" {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start date and end date are required",
		})
	} else {
		start, okStart := validator.IsValidDate(r.StartDate)
		end, okEnd := validator.IsValidDate(r.EndDate)
		if !okStart {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
		if !okEnd {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
		if okStart && okEnd && end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end date must be after start date",
			})
		}
		r.Start, r.End = start, end
	}
	errs = append(errs, validateFormat(&r.Format)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ReportUser struct {
	UserID     string `json:"user_id"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Shift      string `json:"shift,omitempty"`
}

type AttendanceSummary struct {
	TotalDays           int     `json:"total_days"`
	PresentDays         int     `json:"present_days"`
	AbsentDays          int     `json:"absent_days"`
	LateDays            int     `json:"late_days"`
	AttendanceRate      int     `json:"attendance_rate"`
	TotalWorkingHours   float64 `json:"total_working_hours"`
	TotalOvertimeHours  float64 `json:"total_overtime_hours"`
	AverageWorkingHours float64 `json:"average_working_hours"`
}

type BreakDetail struct {
	Type      string  `json:"type"`
	Duration  int     `json:"duration"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
}

type AttendanceDetail struct {
	Date          string        `json:"date"`
	Shift         string        `json:"shift"`
	CheckIn       *string       `json:"check_in,omitempty"`
	CheckOut      *string       `json:"check_out,omitempty"`
	WorkingHours  float64       `json:"working_hours"`
	OvertimeHours float64       `json:"overtime_hours"`
	Status        string        `json:"status"`
	IsLate        bool          `json:"is_late"`
	LateMinutes   int           `json:"late_minutes"`
	Breaks        []BreakDetail `json:"breaks"`
}

type EmployeeAttendance struct {
	User    ReportUser         `json:"user"`
	Summary AttendanceSummary  `json:"summary"`
	Details []AttendanceDetail `json:"details"`
}

type AttendanceOverallStats struct {
	TotalEmployees        int     `json:"total_employees"`
	AverageAttendanceRate int     `json:"average_attendance_rate"`
	TotalPresentDays      int     `json:"total_present_days"`
	TotalAbsentDays       int     `json:"total_absent_days"`
	TotalLateDays         int     `json:"total_late_days"`
	TotalWorkingHours     float64 `json:"total_working_hours"`
	TotalOvertimeHours    float64 `json:"total_overtime_hours"`
}

type ReportPeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	TotalDays int    `json:"total_days,omitempty"`
}

type ReportFilters struct {
	Department string `json:"department"`
	UserID     string `json:"user_id"`
	Status     string `json:"status,omitempty"`
	Type       string `json:"type,omitempty"`
}

type GeneratedBy struct {
	Name       string `json:"name"`
	EmployeeID string `json:"employee_id"`
}

type AttendanceReport struct {
	Period       ReportPeriod           `json:"period"`
	Filters      ReportFilters          `json:"filters"`
	OverallStats AttendanceOverallStats `json:"overall_stats"`
	EmployeeData []EmployeeAttendance   `json:"employee_data"`
	GeneratedAt  string                 `json:"generated_at"`
	GeneratedBy  GeneratedBy            `json:"generated_by"`
}

// ========================================
// LEAVE REPORT
// ========================================

type LeaveReportRequest struct {
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
	Department *string `json:"department,omitempty"`
	UserID     *string `json:"user_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	Type       *string `json:"type,omitempty"`
}

func (r *LeaveReportRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validator.OptionalDate("start_date", r.StartDate)...)
	errs = append(errs, validator.OptionalDate("end_date", r.EndDate)...)
	if r.Status != nil && !validator.IsInSlice(*r.Status, leave.Statuses) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: pending, approved, rejected, cancelled",
		})
	}
	if r.Type != nil && !validator.IsInSlice(*r.Type, leave.Types) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "invalid leave type",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type LeaveStats struct {
	Total     int                `json:"total"`
	TotalDays float64            `json:"total_days"`
	Pending   int                `json:"pending"`
	Approved  int                `json:"approved"`
	Rejected  int                `json:"rejected"`
	Cancelled int                `json:"cancelled"`
	ByType    map[string]float64 `json:"by_type"`
}

// Add counts one leave into the stats.
func (s *LeaveStats) Add(l leave.Leave) {
	if s.ByType == nil {
		s.ByType = make(map[string]float64)
	}
	s.Total++
	s.TotalDays += l.TotalDays
	switch l.Status {
	case leave.StatusPending:
		s.Pending++
	case leave.StatusApproved:
		s.Approved++
	case leave.StatusRejected:
		s.Rejected++
	case leave.StatusCancelled:
		s.Cancelled++
	}
	s.ByType[string(l.Type)] += l.TotalDays
}

type LeaveDetail struct {
	Type                string  `json:"type"`
	StartDate           string  `json:"start_date"`
	EndDate             string  `json:"end_date"`
	TotalDays           float64 `json:"total_days"`
	Reason              string  `json:"reason"`
	Status              string  `json:"status"`
	AppliedDate         string  `json:"applied_date"`
	ReviewedBy          *string `json:"reviewed_by,omitempty"`
	ReviewedAt          *string `json:"reviewed_at,omitempty"`
	ReviewComments      *string `json:"review_comments,omitempty"`
	ReplacementEmployee *string `json:"replacement_employee,omitempty"`
}

type EmployeeLeaves struct {
	User    ReportUser    `json:"user"`
	Summary LeaveStats    `json:"summary"`
	Leaves  []LeaveDetail `json:"leaves"`
}

type LeaveReport struct {
	Period       *ReportPeriod    `json:"period"`
	Filters      ReportFilters    `json:"filters"`
	OverallStats LeaveStats       `json:"overall_stats"`
	EmployeeData []EmployeeLeaves `json:"employee_data"`
	GeneratedAt  string           `json:"generated_at"`
	GeneratedBy  GeneratedBy      `json:"generated_by"`
}

// ========================================
// MONTHLY SUMMARY
// ========================================

type MonthlySummaryRequest struct {
	Month      int     `json:"month"`
	Year       int     `json:"year"`
	Department *string `json:"department,omitempty"`
	Format     string  `json:"format"`
}

// Validate fills month and year from now when they are zero.
func (r *MonthlySummaryRequest) Validate(now time.Time) error {
	var errs validator.ValidationErrors

	if r.Month == 0 {
		r.Month = int(now.Month())
	}
	if r.Year == 0 {
		r.Year = now.Year()
	}
	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if r.Year < 1970 || r.Year > 9999 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be a valid year",
		})
	}
	errs = append(errs, validateFormat(&r.Format)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type MonthlyUserSummary struct {
	WorkingDays         int     `json:"working_days"`
	PresentDays         int     `json:"present_days"`
	AbsentDays          float64 `json:"absent_days"`
	LeaveDays           float64 `json:"leave_days"`
	LateDays            int     `json:"late_days"`
	AttendanceRate      int     `json:"attendance_rate"`
	TotalWorkingHours   float64 `json:"total_working_hours"`
	TotalOvertimeHours  float64 `json:"total_overtime_hours"`
	AverageWorkingHours float64 `json:"average_working_hours"`
}

type MonthlyLeave struct {
	Type        string  `json:"type"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	TotalDays   float64 `json:"total_days"`
	DaysInMonth float64 `json:"days_in_month"`
}

type EmployeeMonthly struct {
	User    ReportUser         `json:"user"`
	Summary MonthlyUserSummary `json:"summary"`
	Leaves  []MonthlyLeave     `json:"leaves"`
}

type DepartmentMonthly struct {
	Department            string  `json:"department"`
	TotalEmployees        int     `json:"total_employees"`
	TotalPresentDays      int     `json:"total_present_days"`
	TotalAbsentDays       float64 `json:"total_absent_days"`
	TotalLeaveDays        float64 `json:"total_leave_days"`
	TotalLateDays         int     `json:"total_late_days"`
	TotalWorkingHours     float64 `json:"total_working_hours"`
	TotalOvertimeHours    float64 `json:"total_overtime_hours"`
	AverageAttendanceRate int     `json:"average_attendance_rate"`
}

type MonthlyPeriod struct {
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	MonthName   string `json:"month_name"`
	WorkingDays int    `json:"working_days"`
}

type MonthlySummary struct {
	Period          MonthlyPeriod       `json:"period"`
	Department      string              `json:"department"`
	Employees       []EmployeeMonthly   `json:"employees"`
	DepartmentStats []DepartmentMonthly `json:"department_stats"`
	GeneratedAt     string              `json:"generated_at"`
	GeneratedBy     GeneratedBy         `json:"generated_by"`
}

func validateFormat(format *string) validator.ValidationErrors {
	if *format == "" {
		*format = FormatJSON
	}
	if *format != FormatJSON && *format != FormatXLSX {
		return validator.ValidationErrors{{
			Field:   "format",
			Message: "format must be json or xlsx",
		}}
	}
	return nil
}
