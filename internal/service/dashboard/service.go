package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAnalyticsDays = 30
	recentCheckInLimit   = 5
	pendingLeaveLimit    = 5
	upcomingLeaveLimit   = 3
	recentAttendanceDays = 7
	topPerformerLimit    = 10
	activityLimit        = 10
	activityWindow       = 2 * time.Hour
)

var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

type DashboardServiceImpl struct {
	attendance.AttendanceRepository
	user.UserRepository
	leave.LeaveRepository
	shift.ShiftRepository
	loc *time.Location
	now func() time.Time
}

func NewDashboardService(
	attendanceRepository attendance.AttendanceRepository,
	userRepository user.UserRepository,
	leaveRepository leave.LeaveRepository,
	shiftRepository shift.ShiftRepository,
	loc *time.Location,
) dashboard.DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardServiceImpl{
		AttendanceRepository: attendanceRepository,
		UserRepository:       userRepository,
		LeaveRepository:      leaveRepository,
		ShiftRepository:      shiftRepository,
		loc:                  loc,
		now:                  time.Now,
	}
}

func (s *DashboardServiceImpl) clock() time.Time {
	return s.now().In(s.loc)
}

// monthBounds returns the first and last day of t's month.
func monthBounds(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first, first.AddDate(0, 1, -1)
}

func inMonth(t, first time.Time) bool {
	return t.Year() == first.Year() && t.Month() == first.Month()
}

// Overview returns the company overview for admin and hr, the personal one otherwise.
func (s *DashboardServiceImpl) Overview(ctx context.Context) (dashboard.OverviewResponse, error) {
	userID, _, err := jwt.Caller(ctx)
	if err != nil {
		return dashboard.OverviewResponse{}, err
	}

	me, err := s.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return dashboard.OverviewResponse{}, err
	}

	resp := dashboard.OverviewResponse{
		User: dashboard.UserSummary{
			Name:       me.FullName(),
			Role:       string(me.Role),
			Department: me.Department,
		},
	}

	if me.IsStaff() {
		admin, err := s.adminOverview(ctx)
		if err != nil {
			return dashboard.OverviewResponse{}, err
		}
		resp.Admin = &admin
		return resp, nil
	}

	employee, err := s.employeeOverview(ctx, me)
	if err != nil {
		return dashboard.OverviewResponse{}, err
	}
	resp.Employee = &employee
	return resp, nil
}

func (s *DashboardServiceImpl) adminOverview(ctx context.Context) (dashboard.AdminOverview, error) {
	now := s.clock()
	today := attendance.DateOnly(now, s.loc)
	monthStart, monthEnd := monthBounds(today)

	var (
		overview dashboard.AdminOverview
		present  int
		active   int
	)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Headcount
	g.Go(func() error {
		users, err := s.UserRepository.Find(gCtx, user.Query{ActiveOnly: true})
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		active = len(users)
		for _, u := range users {
			if inMonth(u.CreatedAt.In(s.loc), monthStart) {
				overview.NewEmployeesThisMonth++
			}
		}
		return nil
	})

	// 2. Today's attendance
	g.Go(func() error {
		records, err := s.AttendanceRepository.ListRange(gCtx, attendance.RangeQuery{From: today, To: today})
		if err != nil {
			return fmt.Errorf("failed to load today's attendance: %w", err)
		}

		checkedIn := make([]attendance.Attendance, 0, len(records))
		for _, a := range records {
			if a.HasCheckedIn() {
				present++
				checkedIn = append(checkedIn, a)
			}
			if a.IsLate {
				overview.TodayAttendance.Late++
			}
			if a.ActiveBreak() != nil {
				overview.TodayAttendance.OnBreak++
			}
		}

		sort.SliceStable(checkedIn, func(i, j int) bool {
			return checkedIn[i].CheckIn.Time.After(*checkedIn[j].CheckIn.Time)
		})
		overview.RecentCheckIns = make([]attendance.AttendanceResponse, 0, recentCheckInLimit)
		for i := 0; i < len(checkedIn) && i < recentCheckInLimit; i++ {
			overview.RecentCheckIns = append(overview.RecentCheckIns, attendance.ToResponse(checkedIn[i]))
		}
		return nil
	})

	// 3. Pending leaves, oldest first
	g.Go(func() error {
		pending, err := s.LeaveRepository.ListRange(gCtx, leave.RangeQuery{
			From:     time.Time{},
			To:       farFuture,
			Statuses: []leave.Status{leave.StatusPending},
		})
		if err != nil {
			return fmt.Errorf("failed to load pending leaves: %w", err)
		}

		overview.LeaveRequests.Pending = len(pending)
		sort.SliceStable(pending, func(i, j int) bool {
			return pending[i].AppliedDate.Before(pending[j].AppliedDate)
		})
		overview.PendingLeaves = make([]leave.LeaveResponse, 0, pendingLeaveLimit)
		for i := 0; i < len(pending) && i < pendingLeaveLimit; i++ {
			overview.PendingLeaves = append(overview.PendingLeaves, leave.ToResponse(pending[i]))
		}
		return nil
	})

	// 4. Leaves starting this month
	g.Go(func() error {
		leaves, err := s.LeaveRepository.ListRange(gCtx, leave.RangeQuery{From: monthStart, To: monthEnd})
		if err != nil {
			return fmt.Errorf("failed to load monthly leaves: %w", err)
		}
		for _, l := range leaves {
			if !inMonth(l.StartDate, monthStart) {
				continue
			}
			overview.LeaveRequests.TotalThisMonth++
			if l.Status == leave.StatusApproved {
				overview.LeaveRequests.ApprovedThisMonth++
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return dashboard.AdminOverview{}, err
	}

	overview.TotalEmployees = active
	overview.TodayAttendance.Present = present
	overview.TodayAttendance.Absent = max(active-present, 0)
	return overview, nil
}

func (s *DashboardServiceImpl) employeeOverview(ctx context.Context, me user.User) (dashboard.EmployeeOverview, error) {
	now := s.clock()
	today := attendance.DateOnly(now, s.loc)
	tomorrow := today.AddDate(0, 0, 1)
	monthStart, monthEnd := monthBounds(today)

	overview := dashboard.EmployeeOverview{
		TodayStatus: dashboard.TodayStatus{WorkingHours: "0h 0m"},
	}

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Today's status
	g.Go(func() error {
		record, err := s.AttendanceRepository.GetByUserAndDate(gCtx, me.ID, today)
		if err != nil {
			return fmt.Errorf("failed to load today's attendance: %w", err)
		}

		shiftID := me.ShiftID
		if record != nil {
			status := &overview.TodayStatus
			status.HasCheckedIn = record.HasCheckedIn()
			status.HasCheckedOut = record.HasCheckedOut()
			status.CheckInTime = formatTime(record.CheckIn.Time)
			status.CheckOutTime = formatTime(record.CheckOut.Time)
			status.IsLate = record.IsLate
			status.LateMinutes = record.LateMinutes
			status.WorkingHours = record.FormattedWorkingHours()
			if b := record.ActiveBreak(); b != nil {
				br := attendance.ToBreakResponse(*b)
				status.ActiveBreak = &br
			}
			if record.ShiftID != nil {
				shiftID = record.ShiftID
			}
		}

		if shiftID != nil {
			sh, err := s.ShiftRepository.GetByID(gCtx, *shiftID)
			switch {
			case err == nil:
				resp := shift.ToResponse(sh)
				overview.TodayStatus.Shift = &resp
			case !errors.Is(err, shift.ErrShiftNotFound):
				return err
			}
		}
		return nil
	})

	// 2. This month's attendance
	g.Go(func() error {
		records, err := s.AttendanceRepository.ListRange(gCtx, attendance.RangeQuery{From: monthStart, To: monthEnd, UserID: &me.ID})
		if err != nil {
			return fmt.Errorf("failed to load monthly attendance: %w", err)
		}

		stats := &overview.MonthlyStats
		var minutes int
		for _, a := range records {
			stats.TotalWorkingDays++
			if a.HasCheckedIn() {
				stats.PresentDays++
			}
			if a.IsLate {
				stats.LateDays++
			}
			minutes += a.WorkingMinutes
		}
		stats.TotalWorkingHours = hours(minutes)
		if len(records) > 0 {
			stats.AverageWorkingHours = round2(float64(minutes) / 60 / float64(len(records)))
		}
		return nil
	})

	// 3. Leaves
	g.Go(func() error {
		monthly, err := s.LeaveRepository.ListRange(gCtx, leave.RangeQuery{From: monthStart, To: monthEnd, UserID: &me.ID})
		if err != nil {
			return fmt.Errorf("failed to load monthly leaves: %w", err)
		}
		info := &overview.LeaveInfo
		for _, l := range monthly {
			if !inMonth(l.StartDate, monthStart) {
				continue
			}
			info.TotalThisMonth++
			switch l.Status {
			case leave.StatusPending:
				info.PendingRequests++
			case leave.StatusApproved:
				info.ApprovedDays += l.TotalDays
			}
		}

		upcoming, err := s.LeaveRepository.ListRange(gCtx, leave.RangeQuery{
			From:     tomorrow,
			To:       farFuture,
			UserID:   &me.ID,
			Statuses: []leave.Status{leave.StatusApproved},
		})
		if err != nil {
			return fmt.Errorf("failed to load upcoming leaves: %w", err)
		}
		info.UpcomingLeaves = make([]leave.LeaveResponse, 0, upcomingLeaveLimit)
		for _, l := range upcoming {
			if l.StartDate.Before(tomorrow) {
				continue
			}
			if len(info.UpcomingLeaves) == upcomingLeaveLimit {
				break
			}
			info.UpcomingLeaves = append(info.UpcomingLeaves, leave.ToResponse(l))
		}
		return nil
	})

	// 4. Recent attendance
	g.Go(func() error {
		records, _, err := s.AttendanceRepository.List(gCtx, attendance.AttendanceFilter{
			UserID: &me.ID,
			Page:   1,
			Limit:  recentAttendanceDays,
		})
		if err != nil {
			return fmt.Errorf("failed to load recent attendance: %w", err)
		}
		overview.RecentAttendance = make([]attendance.AttendanceResponse, 0, len(records))
		for _, a := range records {
			overview.RecentAttendance = append(overview.RecentAttendance, attendance.ToResponse(a))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return dashboard.EmployeeOverview{}, err
	}
	return overview, nil
}

// AttendanceAnalytics implements dashboard.DashboardService over the days
// ending today.
func (s *DashboardServiceImpl) AttendanceAnalytics(ctx context.Context, days int) (dashboard.AttendanceAnalytics, error) {
	if days <= 0 {
		days = defaultAnalyticsDays
	}
	end := attendance.DateOnly(s.clock(), s.loc)
	start := end.AddDate(0, 0, -(days - 1))

	var (
		records []attendance.Attendance
		users   []user.User
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.AttendanceRepository.ListRange(gCtx, attendance.RangeQuery{From: start, To: end})
		if err != nil {
			return fmt.Errorf("failed to load attendance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = s.UserRepository.Find(gCtx, user.Query{ActiveOnly: true})
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return dashboard.AttendanceAnalytics{}, err
	}

	return dashboard.AttendanceAnalytics{
		Period: dashboard.Period{
			StartDate: start.Format("2006-01-02"),
			EndDate:   end.Format("2006-01-02"),
			Days:      days,
		},
		DailyTrends:    dailyTrends(records),
		DepartmentWise: departmentAttendance(users, records, days),
		TopPerformers:  topPerformers(users, records),
	}, nil
}

func dailyTrends(records []attendance.Attendance) []dashboard.DailyTrend {
	type acc struct {
		trend   dashboard.DailyTrend
		minutes int
		count   int
	}
	byDay := make(map[string]*acc)
	for _, a := range records {
		day := a.Date.Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &acc{trend: dashboard.DailyTrend{Date: day}}
			byDay[day] = d
		}
		d.count++
		d.minutes += a.WorkingMinutes
		if a.HasCheckedIn() {
			d.trend.Present++
		}
		if a.IsLate {
			d.trend.Late++
		}
	}

	trends := make([]dashboard.DailyTrend, 0, len(byDay))
	for _, d := range byDay {
		d.trend.TotalHours = hours(d.minutes)
		d.trend.AverageHours = round2(float64(d.minutes) / 60 / float64(d.count))
		trends = append(trends, d.trend)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends
}

func departmentAttendance(users []user.User, records []attendance.Attendance, days int) []dashboard.DepartmentAttendance {
	deptOf := make(map[string]string, len(users))
	headcount := make(map[string]int)
	for _, u := range users {
		deptOf[u.ID] = u.Department
		headcount[u.Department]++
	}

	present := make(map[string]int)
	late := make(map[string]int)
	for _, a := range records {
		dept, ok := deptOf[a.UserID]
		if !ok {
			continue
		}
		if a.HasCheckedIn() {
			present[dept]++
		}
		if a.IsLate {
			late[dept]++
		}
	}

	out := make([]dashboard.DepartmentAttendance, 0, len(headcount))
	for dept, n := range headcount {
		d := dashboard.DepartmentAttendance{
			Department:     dept,
			TotalEmployees: n,
			AttendanceRate: percent(present[dept], n*days),
		}
		if present[dept] > 0 {
			d.LateRate = percent(late[dept], present[dept])
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out
}

func topPerformers(users []user.User, records []attendance.Attendance) []dashboard.Performer {
	total := make(map[string]int)
	present := make(map[string]int)
	for _, a := range records {
		total[a.UserID]++
		if a.HasCheckedIn() {
			present[a.UserID]++
		}
	}

	performers := make([]dashboard.Performer, 0, len(users))
	for _, u := range users {
		performers = append(performers, dashboard.Performer{
			UserID:         u.ID,
			Name:           u.FullName(),
			EmployeeID:     u.EmployeeID,
			Department:     u.Department,
			TotalDays:      total[u.ID],
			PresentDays:    present[u.ID],
			AttendanceRate: percent(present[u.ID], max(total[u.ID], 1)),
		})
	}
	sort.SliceStable(performers, func(i, j int) bool {
		a, b := performers[i], performers[j]
		if a.AttendanceRate != b.AttendanceRate {
			return a.AttendanceRate > b.AttendanceRate
		}
		if a.PresentDays != b.PresentDays {
			return a.PresentDays > b.PresentDays
		}
		return a.EmployeeID < b.EmployeeID
	})
	if len(performers) > topPerformerLimit {
		performers = performers[:topPerformerLimit]
	}
	return performers
}

// LeaveAnalytics implements dashboard.DashboardService.
func (s *DashboardServiceImpl) LeaveAnalytics(ctx context.Context, year int) (dashboard.LeaveAnalytics, error) {
	if year <= 0 {
		year = s.clock().Year()
	}

	var (
		leaves []leave.Leave
		users  []user.User
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := s.LeaveRepository.ListRange(gCtx, leave.RangeQuery{
			From: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			return fmt.Errorf("failed to load leaves: %w", err)
		}
		leaves = leave.StartingIn(all, year)
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = s.UserRepository.Find(gCtx, user.Query{ActiveOnly: true})
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return dashboard.LeaveAnalytics{}, err
	}

	return dashboard.LeaveAnalytics{
		Year:           year,
		MonthlyTrends:  leave.MonthlyByStatus(leaves),
		LeaveTypes:     leaveTypeUsage(leaves),
		DepartmentWise: departmentLeaves(users, leaves),
	}, nil
}

// leaveTypeUsage counts pending and approved leaves per type, most days first.
func leaveTypeUsage(leaves []leave.Leave) []dashboard.LeaveTypeUsage {
	byType := make(map[string]*dashboard.LeaveTypeUsage)
	for _, l := range leaves {
		if !l.Blocking() {
			continue
		}
		u, ok := byType[string(l.Type)]
		if !ok {
			u = &dashboard.LeaveTypeUsage{Type: string(l.Type)}
			byType[u.Type] = u
		}
		u.Count++
		u.TotalDays += l.TotalDays
		if l.Status == leave.StatusPending {
			u.Pending++
		} else {
			u.Approved++
		}
	}

	out := make([]dashboard.LeaveTypeUsage, 0, len(byType))
	for _, u := range byType {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalDays != out[j].TotalDays {
			return out[i].TotalDays > out[j].TotalDays
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// departmentLeaves sums approved leaves of active users per department.
func departmentLeaves(users []user.User, leaves []leave.Leave) []dashboard.DepartmentLeave {
	deptOf := make(map[string]string, len(users))
	byDept := make(map[string]*dashboard.DepartmentLeave)
	for _, u := range users {
		deptOf[u.ID] = u.Department
		d, ok := byDept[u.Department]
		if !ok {
			d = &dashboard.DepartmentLeave{Department: u.Department}
			byDept[u.Department] = d
		}
		d.TotalEmployees++
	}

	for _, l := range leaves {
		if l.Status != leave.StatusApproved {
			continue
		}
		dept, ok := deptOf[l.UserID]
		if !ok {
			continue
		}
		byDept[dept].TotalLeaves++
		byDept[dept].TotalDays += l.TotalDays
	}

	out := make([]dashboard.DepartmentLeave, 0, len(byDept))
	for _, d := range byDept {
		d.AverageLeaveDays = round2(d.TotalDays / float64(max(d.TotalEmployees, 1)))
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageLeaveDays != out[j].AverageLeaveDays {
			return out[i].AverageLeaveDays > out[j].AverageLeaveDays
		}
		return out[i].Department < out[j].Department
	})
	return out
}

// Realtime implements dashboard.DashboardService.
func (s *DashboardServiceImpl) Realtime(ctx context.Context) (dashboard.RealtimeResponse, error) {
	now := s.clock()
	today := attendance.DateOnly(now, s.loc)
	since := now.Add(-activityWindow)

	resp := dashboard.RealtimeResponse{LastUpdated: now.Format(time.RFC3339)}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := s.AttendanceRepository.ListRange(gCtx, attendance.RangeQuery{From: today, To: today})
		if err != nil {
			return fmt.Errorf("failed to load today's attendance: %w", err)
		}

		for _, a := range records {
			if a.HasCheckedIn() && !a.HasCheckedOut() {
				resp.CurrentStats.CurrentlyPresent++
			}
			if a.ActiveBreak() != nil {
				resp.CurrentStats.OnBreak++
			}
			if a.IsLate {
				resp.CurrentStats.LateToday++
			}
		}
		resp.RecentActivities = recentActivities(records, since)
		return nil
	})

	g.Go(func() error {
		pending, err := s.LeaveRepository.ListRange(gCtx, leave.RangeQuery{
			From:     time.Time{},
			To:       farFuture,
			Statuses: []leave.Status{leave.StatusPending},
		})
		if err != nil {
			return fmt.Errorf("failed to load pending leaves: %w", err)
		}
		resp.CurrentStats.PendingLeaves = len(pending)
		return nil
	})

	g.Go(func() error {
		onLeave, err := s.LeaveRepository.ListRange(gCtx, leave.RangeQuery{
			From:     today,
			To:       today,
			Statuses: []leave.Status{leave.StatusApproved},
		})
		if err != nil {
			return fmt.Errorf("failed to load leaves: %w", err)
		}
		resp.OnLeaveToday = make([]leave.LeaveResponse, 0, len(onLeave))
		for _, l := range onLeave {
			resp.OnLeaveToday = append(resp.OnLeaveToday, leave.ToResponse(l))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return dashboard.RealtimeResponse{}, err
	}
	return resp, nil
}

// recentActivities reports the latest check-in or check-out of each record
// that happened after since, newest first.
func recentActivities(records []attendance.Attendance, since time.Time) []dashboard.Activity {
	type entry struct {
		at       time.Time
		activity dashboard.Activity
	}
	entries := make([]entry, 0, len(records))
	for _, a := range records {
		action, at := "checkin", a.CheckIn.Time
		if a.CheckOut.Time != nil {
			action, at = "checkout", a.CheckOut.Time
		}
		if at == nil || at.Before(since) {
			continue
		}
		entries = append(entries, entry{at: *at, activity: dashboard.Activity{
			UserID:     a.UserID,
			UserName:   a.UserName,
			EmployeeID: a.EmployeeCode,
			Action:     action,
			Time:       at.Format(time.RFC3339),
			IsLate:     a.IsLate,
		}})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })
	if len(entries) > activityLimit {
		entries = entries[:activityLimit]
	}

	activities := make([]dashboard.Activity, 0, len(entries))
	for _, e := range entries {
		activities = append(activities, e.activity)
	}
	return activities
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func hours(minutes int) float64 {
	return round2(float64(minutes) / 60)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
