package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	svc   *DashboardServiceImpl
	admin user.User
	eng   user.User
	sales user.User
}

// newFixture seeds a small company on Wednesday 2025-03-19 at 10:00.
//
//	eng   checked in late at 09:20 and is on a coffee break
//	sales worked yesterday and checked in 08:30, out 09:45 today
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := NewDashboardService(store.Attendances, store.Users, store.Leaves, store.Shifts, time.UTC).(*DashboardServiceImpl)
	svc.now = func() time.Time { return at("2025-03-19 10:00") }

	morning, err := store.Shifts.Create(ctx, shift.Shift{
		Name:                     "Morning",
		StartTime:                "09:00",
		EndTime:                  "17:00",
		WorkingDays:              []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		BreakDurationMinutes:     60,
		LateThresholdMinutes:     15,
		OvertimeThresholdMinutes: 480,
		IsActive:                 true,
		Color:                    shift.DefaultColor,
	})
	require.NoError(t, err)

	newUser := func(employeeID string, role user.Role, dept string, created time.Time, shiftID *string) user.User {
		u, err := store.Users.Create(ctx, user.User{
			EmployeeID:   employeeID,
			FirstName:    "Emp",
			LastName:     employeeID,
			Email:        employeeID + "@example.com",
			PasswordHash: "hash",
			Role:         role,
			Department:   dept,
			Position:     "Staff",
			HireDate:     created,
			ShiftID:      shiftID,
			IsActive:     true,
			CreatedAt:    created,
		})
		require.NoError(t, err)
		return u
	}

	f := &fixture{svc: svc}
	f.admin = newUser("ADM001", user.RoleAdmin, "Engineering", day("2025-03-02"), nil)
	f.eng = newUser("EMP001", user.RoleEmployee, "Engineering", day("2024-01-01"), &morning.ID)
	f.sales = newUser("EMP002", user.RoleEmployee, "Sales", day("2025-03-05"), nil)

	record := func(a attendance.Attendance) {
		_, err := store.Attendances.Create(ctx, a)
		require.NoError(t, err)
	}
	record(attendance.Attendance{
		UserID:      f.eng.ID,
		Date:        day("2025-03-19"),
		ShiftID:     &morning.ID,
		CheckIn:     attendance.CheckPoint{Time: ptr(at("2025-03-19 09:20"))},
		Breaks:      []attendance.Break{{StartTime: at("2025-03-19 09:50"), Type: attendance.BreakCoffee}},
		IsLate:      true,
		LateMinutes: 5,
		Status:      attendance.StatusLate,
	})
	record(attendance.Attendance{
		UserID:  f.eng.ID,
		Date:    day("2025-03-10"),
		CheckIn: attendance.CheckPoint{Time: ptr(at("2025-03-10 09:00"))},
		Status:  attendance.StatusPresent,
	})
	record(attendance.Attendance{
		UserID:         f.sales.ID,
		Date:           day("2025-03-18"),
		CheckIn:        attendance.CheckPoint{Time: ptr(at("2025-03-18 09:00"))},
		CheckOut:       attendance.CheckPoint{Time: ptr(at("2025-03-18 17:00"))},
		WorkingMinutes: 480,
		Status:         attendance.StatusPresent,
	})
	record(attendance.Attendance{
		UserID:         f.sales.ID,
		Date:           day("2025-03-19"),
		CheckIn:        attendance.CheckPoint{Time: ptr(at("2025-03-19 08:30"))},
		CheckOut:       attendance.CheckPoint{Time: ptr(at("2025-03-19 09:45"))},
		WorkingMinutes: 75,
		Status:         attendance.StatusPresent,
	})

	apply := func(userID string, typ leave.Type, start, end string, days float64, status leave.Status, applied string) {
		_, err := store.Leaves.Create(ctx, leave.Leave{
			UserID:      userID,
			Type:        typ,
			StartDate:   day(start),
			EndDate:     day(end),
			TotalDays:   days,
			Reason:      "reason",
			Status:      status,
			AppliedDate: day(applied),
		})
		require.NoError(t, err)
	}
	apply(f.eng.ID, leave.TypeVacation, "2025-03-24", "2025-03-25", 2, leave.StatusPending, "2025-03-10")
	apply(f.sales.ID, leave.TypeSick, "2025-03-19", "2025-03-19", 1, leave.StatusApproved, "2025-03-01")
	apply(f.sales.ID, leave.TypeVacation, "2025-04-02", "2025-04-04", 3, leave.StatusApproved, "2025-03-01")

	return f
}

func (f *fixture) as(u user.User) context.Context {
	return jwt.WithCaller(context.Background(), u.ID, u.Role)
}

func TestDashboardService_AdminOverview(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Overview(f.as(f.admin))
	require.NoError(t, err)
	require.NotNil(t, resp.Admin)
	assert.Nil(t, resp.Employee)
	assert.Equal(t, dashboard.UserSummary{Name: "Emp ADM001", Role: "admin", Department: "Engineering"}, resp.User)

	admin := resp.Admin
	assert.Equal(t, 3, admin.TotalEmployees)
	assert.Equal(t, 2, admin.NewEmployeesThisMonth)
	assert.Equal(t, dashboard.TodayAttendance{Present: 2, Absent: 1, Late: 1, OnBreak: 1}, admin.TodayAttendance)
	assert.Equal(t, dashboard.LeaveRequestCounts{Pending: 1, ApprovedThisMonth: 1, TotalThisMonth: 2}, admin.LeaveRequests)

	require.Len(t, admin.RecentCheckIns, 2)
	assert.Equal(t, f.eng.ID, admin.RecentCheckIns[0].UserID)
	require.Len(t, admin.PendingLeaves, 1)
	assert.Equal(t, f.eng.ID, admin.PendingLeaves[0].UserID)
}

func TestDashboardService_EmployeeOverview(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Overview(f.as(f.sales))
	require.NoError(t, err)
	assert.Nil(t, resp.Admin)
	require.NotNil(t, resp.Employee)

	emp := resp.Employee
	assert.True(t, emp.TodayStatus.HasCheckedIn)
	assert.True(t, emp.TodayStatus.HasCheckedOut)
	assert.Equal(t, "1h 15m", emp.TodayStatus.WorkingHours)
	assert.Nil(t, emp.TodayStatus.Shift)

	assert.Equal(t, dashboard.MonthlyStats{
		TotalWorkingDays:    2,
		PresentDays:         2,
		TotalWorkingHours:   9.25,
		AverageWorkingHours: 4.63,
	}, emp.MonthlyStats)

	assert.Equal(t, 1, emp.LeaveInfo.TotalThisMonth)
	assert.Equal(t, 0, emp.LeaveInfo.PendingRequests)
	assert.Equal(t, 1.0, emp.LeaveInfo.ApprovedDays)
	require.Len(t, emp.LeaveInfo.UpcomingLeaves, 1)
	assert.Equal(t, "2025-04-02", emp.LeaveInfo.UpcomingLeaves[0].StartDate)

	require.Len(t, emp.RecentAttendance, 2)
	assert.Equal(t, "2025-03-19", emp.RecentAttendance[0].Date)

	t.Run("on break with a shift", func(t *testing.T) {
		resp, err := f.svc.Overview(f.as(f.eng))
		require.NoError(t, err)
		status := resp.Employee.TodayStatus
		assert.True(t, status.IsLate)
		assert.Equal(t, 5, status.LateMinutes)
		require.NotNil(t, status.ActiveBreak)
		assert.Equal(t, "coffee", status.ActiveBreak.Type)
		require.NotNil(t, status.Shift)
		assert.Equal(t, "Morning", status.Shift.Name)
	})
}

func TestDashboardService_AttendanceAnalytics(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.AttendanceAnalytics(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, dashboard.Period{StartDate: "2025-03-13", EndDate: "2025-03-19", Days: 7}, got.Period)

	assert.Equal(t, []dashboard.DailyTrend{
		{Date: "2025-03-18", Present: 1, TotalHours: 8, AverageHours: 8},
		{Date: "2025-03-19", Present: 2, Late: 1, TotalHours: 1.25, AverageHours: 0.63},
	}, got.DailyTrends)

	assert.Equal(t, []dashboard.DepartmentAttendance{
		{Department: "Engineering", TotalEmployees: 2, AttendanceRate: 7.14, LateRate: 100},
		{Department: "Sales", TotalEmployees: 1, AttendanceRate: 28.57},
	}, got.DepartmentWise)

	require.Len(t, got.TopPerformers, 3)
	assert.Equal(t, f.sales.ID, got.TopPerformers[0].UserID)
	assert.Equal(t, f.eng.ID, got.TopPerformers[1].UserID)
	assert.Equal(t, 0.0, got.TopPerformers[2].AttendanceRate)

	t.Run("defaults to 30 days", func(t *testing.T) {
		got, err := f.svc.AttendanceAnalytics(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, 30, got.Period.Days)
		assert.Equal(t, "2025-02-18", got.Period.StartDate)
		assert.Len(t, got.DailyTrends, 3)
	})
}

func TestDashboardService_LeaveAnalytics(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.LeaveAnalytics(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year)

	assert.Equal(t, []leave.MonthStatusStat{
		{Month: 3, Status: "approved", Count: 1, TotalDays: 1},
		{Month: 3, Status: "pending", Count: 1, TotalDays: 2},
		{Month: 4, Status: "approved", Count: 1, TotalDays: 3},
	}, got.MonthlyTrends)

	assert.Equal(t, []dashboard.LeaveTypeUsage{
		{Type: "vacation", Count: 2, TotalDays: 5, Pending: 1, Approved: 1},
		{Type: "sick", Count: 1, TotalDays: 1, Approved: 1},
	}, got.LeaveTypes)

	assert.Equal(t, []dashboard.DepartmentLeave{
		{Department: "Sales", TotalEmployees: 1, TotalLeaves: 2, TotalDays: 4, AverageLeaveDays: 4},
		{Department: "Engineering", TotalEmployees: 2},
	}, got.DepartmentWise)

	empty, err := f.svc.LeaveAnalytics(context.Background(), 2024)
	require.NoError(t, err)
	assert.Empty(t, empty.MonthlyTrends)
	assert.Empty(t, empty.LeaveTypes)
}

func TestDashboardService_Realtime(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.Realtime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dashboard.CurrentStats{CurrentlyPresent: 1, OnBreak: 1, LateToday: 1, PendingLeaves: 1}, got.CurrentStats)

	require.Len(t, got.RecentActivities, 2)
	assert.Equal(t, "checkout", got.RecentActivities[0].Action)
	assert.Equal(t, f.sales.ID, got.RecentActivities[0].UserID)
	assert.Equal(t, "checkin", got.RecentActivities[1].Action)
	assert.True(t, got.RecentActivities[1].IsLate)

	require.Len(t, got.OnLeaveToday, 1)
	assert.Equal(t, "sick", got.OnLeaveToday[0].Type)
	assert.Equal(t, "2025-03-19T10:00:00Z", got.LastUpdated)
}

func TestRecentActivities_Window(t *testing.T) {
	old := at("2025-03-19 07:00")
	records := []attendance.Attendance{
		{UserID: "a", CheckIn: attendance.CheckPoint{Time: &old}},
	}
	assert.Empty(t, recentActivities(records, at("2025-03-19 08:00")))
	assert.Len(t, recentActivities(records, at("2025-03-19 06:00")), 1)
}
