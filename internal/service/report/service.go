package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
)

const (
	allFilter = "All"
	noShift   = "No Shift"
)

var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

type ReportServiceImpl struct {
	attendance.AttendanceRepository
	user.UserRepository
	leave.LeaveRepository
	loc *time.Location
	now func() time.Time
}

func NewReportService(
	attendanceRepository attendance.AttendanceRepository,
	userRepository user.UserRepository,
	leaveRepository leave.LeaveRepository,
	loc *time.Location,
) report.ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportServiceImpl{
		AttendanceRepository: attendanceRepository,
		UserRepository:       userRepository,
		LeaveRepository:      leaveRepository,
		loc:                  loc,
		now:                  time.Now,
	}
}

func (s *ReportServiceImpl) generatedBy(ctx context.Context) (report.GeneratedBy, error) {
	callerID, _, err := jwt.Caller(ctx)
	if err != nil {
		return report.GeneratedBy{}, err
	}
	caller, err := s.UserRepository.GetByID(ctx, callerID)
	if err != nil {
		return report.GeneratedBy{}, err
	}
	return report.GeneratedBy{Name: caller.FullName(), EmployeeID: caller.EmployeeID}, nil
}

// users returns the active users a report covers. Asking for a single
// unknown user fails with report.ErrUserNotFound.
func (s *ReportServiceImpl) users(ctx context.Context, department, userID *string) ([]user.User, error) {
	q := user.Query{Department: department, ActiveOnly: true}
	if userID != nil {
		q.IDs = []string{*userID}
	}
	users, err := s.UserRepository.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if userID != nil && len(users) == 0 {
		return nil, report.ErrUserNotFound
	}
	return users, nil
}

func toReportUser(u user.User) report.ReportUser {
	ru := report.ReportUser{
		UserID:     u.ID,
		EmployeeID: u.EmployeeID,
		Name:       u.FullName(),
		Department: u.Department,
		Shift:      noShift,
	}
	if u.ShiftName != nil {
		ru.Shift = *u.ShiftName
	}
	return ru
}

// AttendanceReport implements report.ReportService.
func (s *ReportServiceImpl) AttendanceReport(ctx context.Context, req report.AttendanceReportRequest) (report.AttendanceReport, error) {
	generatedBy, err := s.generatedBy(ctx)
	if err != nil {
		return report.AttendanceReport{}, err
	}

	users, err := s.users(ctx, req.Department, req.UserID)
	if err != nil {
		return report.AttendanceReport{}, err
	}

	records, err := s.AttendanceRepository.ListRange(ctx, attendance.RangeQuery{
		From:       req.Start,
		To:         req.End,
		UserID:     req.UserID,
		Department: req.Department,
	})
	if err != nil {
		return report.AttendanceReport{}, fmt.Errorf("failed to load attendance: %w", err)
	}
	byUser := make(map[string][]attendance.Attendance)
	for _, a := range records {
		byUser[a.UserID] = append(byUser[a.UserID], a)
	}

	rep := report.AttendanceReport{
		Period: report.ReportPeriod{
			StartDate: req.Start.Format("2006-01-02"),
			EndDate:   req.End.Format("2006-01-02"),
			TotalDays: int(req.End.Sub(req.Start).Hours()/24) + 1,
		},
		Filters:      report.ReportFilters{Department: orAll(req.Department), UserID: orAll(req.UserID)},
		EmployeeData: make([]report.EmployeeAttendance, 0, len(users)),
		GeneratedAt:  s.now().In(s.loc).Format(time.RFC3339),
		GeneratedBy:  generatedBy,
	}

	var rateSum, workingMinutes, overtimeMinutes int
	for _, u := range users {
		emp := s.employeeAttendance(u, byUser[u.ID])
		rep.EmployeeData = append(rep.EmployeeData, emp)

		rateSum += emp.Summary.AttendanceRate
		rep.OverallStats.TotalPresentDays += emp.Summary.PresentDays
		rep.OverallStats.TotalAbsentDays += emp.Summary.AbsentDays
		rep.OverallStats.TotalLateDays += emp.Summary.LateDays
		for _, a := range byUser[u.ID] {
			workingMinutes += a.WorkingMinutes
			overtimeMinutes += a.OvertimeMinutes
		}
	}

	rep.OverallStats.TotalEmployees = len(users)
	rep.OverallStats.TotalWorkingHours = hours(workingMinutes)
	rep.OverallStats.TotalOvertimeHours = hours(overtimeMinutes)
	if len(users) > 0 {
		rep.OverallStats.AverageAttendanceRate = int(math.Round(float64(rateSum) / float64(len(users))))
	}
	return rep, nil
}

func (s *ReportServiceImpl) employeeAttendance(u user.User, records []attendance.Attendance) report.EmployeeAttendance {
	emp := report.EmployeeAttendance{
		User:    toReportUser(u),
		Details: make([]report.AttendanceDetail, 0, len(records)),
	}

	var workingMinutes, overtimeMinutes int
	for _, a := range records {
		emp.Summary.TotalDays++
		if a.HasCheckedIn() {
			emp.Summary.PresentDays++
		}
		if a.IsLate {
			emp.Summary.LateDays++
		}
		workingMinutes += a.WorkingMinutes
		overtimeMinutes += a.OvertimeMinutes
		emp.Details = append(emp.Details, s.attendanceDetail(a))
	}

	sum := &emp.Summary
	sum.AbsentDays = sum.TotalDays - sum.PresentDays
	sum.AttendanceRate = rate(float64(sum.PresentDays), sum.TotalDays)
	sum.TotalWorkingHours = hours(workingMinutes)
	sum.TotalOvertimeHours = hours(overtimeMinutes)
	if sum.PresentDays > 0 {
		sum.AverageWorkingHours = round2(float64(workingMinutes) / float64(sum.PresentDays) / 60)
	}
	return emp
}

func (s *ReportServiceImpl) attendanceDetail(a attendance.Attendance) report.AttendanceDetail {
	d := report.AttendanceDetail{
		Date:          a.Date.Format("2006-01-02"),
		Shift:         noShift,
		CheckIn:       s.clockTime(a.CheckIn.Time),
		CheckOut:      s.clockTime(a.CheckOut.Time),
		WorkingHours:  a.WorkingHours(),
		OvertimeHours: a.OvertimeHours(),
		Status:        string(a.Status),
		IsLate:        a.IsLate,
		LateMinutes:   a.LateMinutes,
		Breaks:        make([]report.BreakDetail, 0, len(a.Breaks)),
	}
	if a.ShiftName != nil {
		d.Shift = *a.ShiftName
	}
	for _, b := range a.Breaks {
		start := b.StartTime
		d.Breaks = append(d.Breaks, report.BreakDetail{
			Type:      string(b.Type),
			Duration:  b.Duration,
			StartTime: s.clockTime(&start),
			EndTime:   s.clockTime(b.EndTime),
		})
	}
	return d
}

// LeaveReport implements report.ReportService. The date range, when both
// ends are given, applies to the start date of each leave.
func (s *ReportServiceImpl) LeaveReport(ctx context.Context, req report.LeaveReportRequest) (report.LeaveReport, error) {
	generatedBy, err := s.generatedBy(ctx)
	if err != nil {
		return report.LeaveReport{}, err
	}

	users, err := s.users(ctx, req.Department, req.UserID)
	if err != nil {
		return report.LeaveReport{}, err
	}

	q := leave.RangeQuery{From: time.Time{}, To: farFuture, UserID: req.UserID, Department: req.Department}
	var period *report.ReportPeriod
	if req.StartDate != nil && req.EndDate != nil {
		q.From, _ = time.Parse("2006-01-02", *req.StartDate)
		q.To, _ = time.Parse("2006-01-02", *req.EndDate)
		period = &report.ReportPeriod{StartDate: *req.StartDate, EndDate: *req.EndDate}
	}
	if req.Status != nil {
		q.Statuses = []leave.Status{leave.Status(*req.Status)}
	}

	all, err := s.LeaveRepository.ListRange(ctx, q)
	if err != nil {
		return report.LeaveReport{}, fmt.Errorf("failed to load leaves: %w", err)
	}

	byUser := make(map[string][]leave.Leave)
	for _, l := range all {
		if period != nil && (l.StartDate.Before(q.From) || l.StartDate.After(q.To)) {
			continue
		}
		if req.Type != nil && string(l.Type) != *req.Type {
			continue
		}
		byUser[l.UserID] = append(byUser[l.UserID], l)
	}

	rep := report.LeaveReport{
		Period: period,
		Filters: report.ReportFilters{
			Department: orAll(req.Department),
			UserID:     orAll(req.UserID),
			Status:     orAll(req.Status),
			Type:       orAll(req.Type),
		},
		OverallStats: report.LeaveStats{ByType: map[string]float64{}},
		EmployeeData: make([]report.EmployeeLeaves, 0, len(users)),
		GeneratedAt:  s.now().In(s.loc).Format(time.RFC3339),
		GeneratedBy:  generatedBy,
	}

	for _, u := range users {
		leaves := byUser[u.ID]
		sort.SliceStable(leaves, func(i, j int) bool { return leaves[i].StartDate.After(leaves[j].StartDate) })

		emp := report.EmployeeLeaves{
			User:    toReportUser(u),
			Summary: report.LeaveStats{ByType: map[string]float64{}},
			Leaves:  make([]report.LeaveDetail, 0, len(leaves)),
		}
		for _, l := range leaves {
			emp.Summary.Add(l)
			rep.OverallStats.Add(l)
			emp.Leaves = append(emp.Leaves, leaveDetail(l))
		}
		rep.EmployeeData = append(rep.EmployeeData, emp)
	}
	return rep, nil
}

func leaveDetail(l leave.Leave) report.LeaveDetail {
	d := report.LeaveDetail{
		Type:                string(l.Type),
		StartDate:           l.StartDate.Format("2006-01-02"),
		EndDate:             l.EndDate.Format("2006-01-02"),
		TotalDays:           l.TotalDays,
		Reason:              l.Reason,
		Status:              string(l.Status),
		AppliedDate:         l.AppliedDate.Format("2006-01-02"),
		ReviewedBy:          l.ReviewerName,
		ReviewComments:      l.ReviewComments,
		ReplacementEmployee: l.ReplacementName,
	}
	if l.ReviewedAt != nil {
		reviewed := l.ReviewedAt.Format("2006-01-02")
		d.ReviewedAt = &reviewed
	}
	return d
}

// MonthlySummary implements report.ReportService. Every calendar day of the
// month counts as a working day.
func (s *ReportServiceImpl) MonthlySummary(ctx context.Context, req report.MonthlySummaryRequest) (report.MonthlySummary, error) {
	generatedBy, err := s.generatedBy(ctx)
	if err != nil {
		return report.MonthlySummary{}, err
	}

	from := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	workingDays := to.Day()

	users, err := s.users(ctx, req.Department, nil)
	if err != nil {
		return report.MonthlySummary{}, err
	}

	records, err := s.AttendanceRepository.ListRange(ctx, attendance.RangeQuery{From: from, To: to, Department: req.Department})
	if err != nil {
		return report.MonthlySummary{}, fmt.Errorf("failed to load attendance: %w", err)
	}
	attendanceByUser := make(map[string][]attendance.Attendance)
	for _, a := range records {
		attendanceByUser[a.UserID] = append(attendanceByUser[a.UserID], a)
	}

	leaves, err := s.LeaveRepository.ListRange(ctx, leave.RangeQuery{
		From:       from,
		To:         to,
		Department: req.Department,
		Statuses:   []leave.Status{leave.StatusApproved},
	})
	if err != nil {
		return report.MonthlySummary{}, fmt.Errorf("failed to load leaves: %w", err)
	}
	leavesByUser := make(map[string][]leave.Leave)
	for _, l := range leaves {
		leavesByUser[l.UserID] = append(leavesByUser[l.UserID], l)
	}

	summary := report.MonthlySummary{
		Period: report.MonthlyPeriod{
			Month:       req.Month,
			Year:        req.Year,
			MonthName:   from.Format("January 2006"),
			WorkingDays: workingDays,
		},
		Department:  orAll(req.Department),
		Employees:   make([]report.EmployeeMonthly, 0, len(users)),
		GeneratedAt: s.now().In(s.loc).Format(time.RFC3339),
		GeneratedBy: generatedBy,
	}

	depts := make(map[string]*report.DepartmentMonthly)
	for _, u := range users {
		emp := employeeMonthly(u, attendanceByUser[u.ID], leavesByUser[u.ID], from, to, workingDays)
		summary.Employees = append(summary.Employees, emp)

		d, ok := depts[u.Department]
		if !ok {
			d = &report.DepartmentMonthly{Department: u.Department}
			depts[u.Department] = d
		}
		d.TotalEmployees++
		d.TotalPresentDays += emp.Summary.PresentDays
		d.TotalAbsentDays += emp.Summary.AbsentDays
		d.TotalLeaveDays += emp.Summary.LeaveDays
		d.TotalLateDays += emp.Summary.LateDays
		d.TotalWorkingHours = round2(d.TotalWorkingHours + emp.Summary.TotalWorkingHours)
		d.TotalOvertimeHours = round2(d.TotalOvertimeHours + emp.Summary.TotalOvertimeHours)
	}

	summary.DepartmentStats = make([]report.DepartmentMonthly, 0, len(depts))
	for _, d := range depts {
		d.AverageAttendanceRate = rate(float64(d.TotalPresentDays)+d.TotalLeaveDays, d.TotalEmployees*workingDays)
		summary.DepartmentStats = append(summary.DepartmentStats, *d)
	}
	sort.Slice(summary.DepartmentStats, func(i, j int) bool {
		return summary.DepartmentStats[i].Department < summary.DepartmentStats[j].Department
	})
	return summary, nil
}

func employeeMonthly(u user.User, records []attendance.Attendance, leaves []leave.Leave, from, to time.Time, workingDays int) report.EmployeeMonthly {
	emp := report.EmployeeMonthly{
		User:   toReportUser(u),
		Leaves: make([]report.MonthlyLeave, 0, len(leaves)),
	}
	sum := &emp.Summary
	sum.WorkingDays = workingDays

	for _, l := range leaves {
		inMonth := leave.ClampLeaveToRange(l, from, to)
		sum.LeaveDays += inMonth
		emp.Leaves = append(emp.Leaves, report.MonthlyLeave{
			Type:        string(l.Type),
			StartDate:   l.StartDate.Format("2006-01-02"),
			EndDate:     l.EndDate.Format("2006-01-02"),
			TotalDays:   l.TotalDays,
			DaysInMonth: inMonth,
		})
	}

	var workingMinutes, overtimeMinutes int
	for _, a := range records {
		if a.HasCheckedIn() {
			sum.PresentDays++
		}
		if a.IsLate {
			sum.LateDays++
		}
		workingMinutes += a.WorkingMinutes
		overtimeMinutes += a.OvertimeMinutes
	}

	sum.AbsentDays = math.Max(0, float64(workingDays-sum.PresentDays)-sum.LeaveDays)
	sum.AttendanceRate = rate(float64(sum.PresentDays)+sum.LeaveDays, workingDays)
	sum.TotalWorkingHours = hours(workingMinutes)
	sum.TotalOvertimeHours = hours(overtimeMinutes)
	if sum.PresentDays > 0 {
		sum.AverageWorkingHours = round2(float64(workingMinutes) / float64(sum.PresentDays) / 60)
	}
	return emp
}

// Departments implements report.ReportService.
func (s *ReportServiceImpl) Departments(ctx context.Context) ([]string, error) {
	return s.UserRepository.Departments(ctx)
}

func (s *ReportServiceImpl) clockTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.In(s.loc).Format("15:04:05")
	return &v
}

func orAll(v *string) string {
	if v == nil || *v == "" {
		return allFilter
	}
	return *v
}

// rate is part/whole as a whole percentage, 0 when whole is 0.
func rate(part float64, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(part / float64(whole) * 100))
}

func hours(minutes int) float64 {
	return round2(float64(minutes) / 60)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
