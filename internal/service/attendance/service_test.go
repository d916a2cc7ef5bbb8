package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/sqlite"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(topic string, event sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, topic+":"+event.Event)
}

type fixture struct {
	store  *sqlite.Store
	svc    *AttendanceServiceImpl
	events *recorder
	clock  time.Time
}

func newFixture(t *testing.T, geofence config.GeofenceConfig) *fixture {
	t.Helper()

	store, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	local, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	f := &fixture{store: store, events: &recorder{}}
	f.svc = NewAttendanceService(store.Transactor, store.Attendances, store.Users, store.Shifts, store.Leaves,
		file.NewFileService(local), f.events, geofence, time.UTC)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) at(s string) {
	f.clock, _ = time.Parse("2006-01-02 15:04", s)
}

func (f *fixture) shift(t *testing.T, name, start, end string, days ...string) shift.Shift {
	t.Helper()
	if len(days) == 0 {
		days = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	}
	sh, err := f.store.Shifts.Create(context.Background(), shift.Shift{
		Name:                     name,
		StartTime:                start,
		EndTime:                  end,
		WorkingDays:              days,
		BreakDurationMinutes:     60,
		LateThresholdMinutes:     15,
		OvertimeThresholdMinutes: 480,
		IsActive:                 true,
		Color:                    shift.DefaultColor,
	})
	require.NoError(t, err)
	return sh
}

func (f *fixture) user(t *testing.T, employeeID string, role user.Role, shiftID, managerID *string) (user.User, context.Context) {
	t.Helper()
	u, err := f.store.Users.Create(context.Background(), user.User{
		EmployeeID:   employeeID,
		FirstName:    "Emp",
		LastName:     employeeID,
		Email:        employeeID + "@example.com",
		PasswordHash: "hash",
		Role:         role,
		Department:   "Engineering",
		Position:     "Engineer",
		HireDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		ShiftID:      shiftID,
		ManagerID:    managerID,
		IsActive:     true,
	})
	require.NoError(t, err)
	return u, jwt.WithCaller(context.Background(), u.ID, role)
}

func TestAttendanceService_WorkingDay(t *testing.T) {
	f := newFixture(t, config.GeofenceConfig{})
	sh := f.shift(t, "Morning", "09:00", "17:00")
	u, ctx := f.user(t, "EMP001", user.RoleEmployee, &sh.ID, nil)

	f.at("2025-03-17 09:20")
	lat, lng := -6.2, 106.8
	in, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{Latitude: &lat, Longitude: &lng, IPAddress: "10.0.0.1", Device: "test"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, in.UserID)
	assert.Equal(t, "2025-03-17", in.Date)
	assert.True(t, in.IsLate)
	assert.Equal(t, 5, in.LateMinutes)
	assert.Equal(t, "late", in.Status)
	require.NotNil(t, in.CheckIn.Location)
	assert.Equal(t, -6.2, *in.CheckIn.Location.Latitude)

	_, err = f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	f.at("2025-03-17 12:00")
	started, err := f.svc.StartBreak(ctx, attendance.StartBreakRequest{Type: "lunch", Notes: "canteen"})
	require.NoError(t, err)
	assert.Equal(t, "lunch", started.Type)

	_, err = f.svc.StartBreak(ctx, attendance.StartBreakRequest{Type: "coffee"})
	assert.ErrorIs(t, err, attendance.ErrActiveBreakExists)

	today, err := f.svc.GetToday(ctx)
	require.NoError(t, err)
	assert.True(t, today.HasCheckedIn)
	assert.False(t, today.HasCheckedOut)
	require.NotNil(t, today.ActiveBreak)
	require.NotNil(t, today.Shift)
	assert.Equal(t, "Morning", today.Shift.Name)

	f.at("2025-03-17 12:30")
	ended, err := f.svc.EndBreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, ended.Duration)

	_, err = f.svc.EndBreak(ctx)
	assert.ErrorIs(t, err, attendance.ErrNoActiveBreak)

	f.at("2025-03-17 18:20")
	out, err := f.svc.CheckOut(ctx, attendance.CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, 510, out.WorkingMinutes)
	assert.Equal(t, 30, out.OvertimeMinutes)
	assert.Equal(t, "late", out.Status)

	_, err = f.svc.CheckOut(ctx, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)

	_, err = f.svc.StartBreak(ctx, attendance.StartBreakRequest{Type: "coffee"})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)

	assert.Equal(t, []string{
		"attendance:checkin",
		"attendance:break_start",
		"attendance:break_end",
		"attendance:checkout",
	}, f.events.events)
}

func TestAttendanceService_Preconditions(t *testing.T) {
	f := newFixture(t, config.GeofenceConfig{})
	sh := f.shift(t, "Morning", "09:00", "17:00")
	_, noShift := f.user(t, "EMP001", user.RoleEmployee, nil, nil)
	_, ctx := f.user(t, "EMP002", user.RoleEmployee, &sh.ID, nil)
	f.at("2025-03-17 09:00")

	_, err := f.svc.CheckIn(noShift, attendance.CheckInRequest{})
	assert.ErrorIs(t, err, shift.ErrNoShiftAssigned)

	_, err = f.svc.CheckOut(ctx, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	_, err = f.svc.StartBreak(ctx, attendance.StartBreakRequest{Type: "lunch"})
	assert.ErrorIs(t, err, attendance.ErrCheckInRequired)

	today, err := f.svc.GetToday(ctx)
	require.NoError(t, err)
	assert.Nil(t, today.Attendance)
	assert.False(t, today.HasCheckedIn)

	_, err = f.svc.GetToday(context.Background())
	assert.Error(t, err)
}

func TestAttendanceService_Geofence(t *testing.T) {
	f := newFixture(t, config.GeofenceConfig{Enabled: true, Latitude: -6.2, Longitude: 106.8, RadiusMeters: 200})
	sh := f.shift(t, "Morning", "09:00", "17:00")
	_, ctx := f.user(t, "EMP001", user.RoleEmployee, &sh.ID, nil)
	f.at("2025-03-17 08:55")

	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrLocationRequired)

	farLat, farLng := -6.3, 106.8
	_, err = f.svc.CheckIn(ctx, attendance.CheckInRequest{Latitude: &farLat, Longitude: &farLng})
	assert.ErrorIs(t, err, attendance.ErrOutsideAllowedRadius)

	nearLat, nearLng := -6.2001, 106.8001
	in, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{Latitude: &nearLat, Longitude: &nearLng})
	require.NoError(t, err)
	assert.False(t, in.IsLate)
	assert.Equal(t, "present", in.Status)
}

func TestAttendanceService_OvernightShift(t *testing.T) {
	f := newFixture(t, config.GeofenceConfig{})
	sh := f.shift(t, "Night", "22:00", "06:00")
	_, ctx := f.user(t, "EMP001", user.RoleEmployee, &sh.ID, nil)

	f.at("2025-03-17 22:05")
	in, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)
	assert.False(t, in.IsLate)

	f.at("2025-03-18 06:10")
	out, err := f.svc.CheckOut(ctx, attendance.CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-17", out.Date)
	assert.Equal(t, 485, out.WorkingMinutes)
	assert.Equal(t, 5, out.OvertimeMinutes)
}

func TestAttendanceService_OvernightShiftRejectsSecondCheckIn(t *testing.T) {
	f := newFixture(t, config.GeofenceConfig{})
	sh := f.shift(t, "Night", "22:00", "06:00")
	u, ctx := f.user(t, "EMP001", user.RoleEmployee, &sh.ID, nil)

	f.at("2025-03-17 22:05")
	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	f.at("2025-03-18 01:00")
	_, err = f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	next, err := f.store.Attendances.GetByUserAndDate(context.Background(), u.ID, time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, next)

	f.at("2025-03-18 06:00")
	out, err := f.svc.CheckOut(ctx, attendance.CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-17", out.Date)
	assert.Equal(t, 475, out.WorkingMinutes)
}

func TestAttendanceService_UpdateAttendance(t *testing.T) {
	f := newFixture(t, config.GeofenceConfig{})
	sh := f.shift(t, "Morning", "09:00", "17:00")
	_, ctx := f.user(t, "EMP001", user.RoleEmployee, &sh.ID, nil)
	admin, adminCtx := f.user(t, "ADM001", user.RoleAdmin, nil, nil)

	f.at("2025-03-17 09:40")
	in, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)
	require.True(t, in.IsLate)

	f.at("2025-03-17 17:00")
	_, err = f.svc.CheckOut(ctx, attendance.CheckOutRequest{})
	require.NoError(t, err)

	t.Run("correction re-derives lateness", func(t *testing.T) {
		checkIn := "2025-03-17T09:00:00Z"
		req := attendance.UpdateAttendanceRequest{ID: in.ID, CheckInTime: &checkIn}
		require.NoError(t, req.Validate())

		updated, err := f.svc.UpdateAttendance(adminCtx, req)
		require.NoError(t, err)
		assert.False(t, updated.IsLate)
		assert.Equal(t, 0, updated.LateMinutes)
		assert.Equal(t, "present", updated.Status)
		assert.Equal(t, 480, updated.WorkingMinutes)
		require.NotNil(t, updated.ApprovedBy)
		assert.Equal(t, admin.ID, *updated.ApprovedBy)
	})

	t.Run("explicit status wins", func(t *testing.T) {
		status, notes := "half-day", "left early"
		updated, err := f.svc.UpdateAttendance(adminCtx, attendance.UpdateAttendanceRequest{ID: in.ID, Status: &status, Notes: &notes})
		require.NoError(t, err)
		assert.Equal(t, "half-day", updated.Status)
		assert.Equal(t, "left early", *updated.Notes)
	})

	t.Run("check-out before check-in", func(t *testing.T) {
		checkOut := "2025-03-17T08:00:00Z"
		_, err := f.svc.UpdateAttendance(adminCtx, attendance.UpdateAttendanceRequest{ID: in.ID, CheckOutTime: &checkOut})
		assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeCheckIn)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := f.svc.UpdateAttendance(adminCtx, attendance.UpdateAttendanceRequest{ID: "00000000-0000-4000-8000-000000000000"})
		assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	})
}

func TestAttendanceService_Listing(t *testing.T) {
	f := newFixture(t, config.GeofenceConfig{})
	sh := f.shift(t, "Morning", "09:00", "17:00")
	manager, managerCtx := f.user(t, "MGR001", user.RoleManager, &sh.ID, nil)
	member, memberCtx := f.user(t, "EMP001", user.RoleEmployee, &sh.ID, &manager.ID)
	outsider, outsiderCtx := f.user(t, "EMP002", user.RoleEmployee, &sh.ID, nil)
	_, hrCtx := f.user(t, "HR001", user.RoleHR, nil, nil)

	f.at("2025-03-17 09:00")
	for _, ctx := range []context.Context{memberCtx, outsiderCtx} {
		_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
		require.NoError(t, err)
	}

	filter := attendance.AttendanceFilter{}
	require.NoError(t, filter.Validate())

	team, err := f.svc.ListAttendance(managerCtx, filter)
	require.NoError(t, err)
	require.Len(t, team.Attendance, 1)
	assert.Equal(t, member.ID, team.Attendance[0].UserID)

	all, err := f.svc.ListAttendance(hrCtx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalCount)
	assert.Equal(t, "1-2 of 2", all.Showing)

	own := attendance.UserAttendanceFilter{UserID: member.ID, Month: 3, Year: 2025}
	require.NoError(t, own.Validate())

	_, err = f.svc.GetUserAttendance(managerCtx, own)
	require.NoError(t, err)

	_, err = f.svc.GetUserAttendance(outsiderCtx, own)
	assert.ErrorIs(t, err, attendance.ErrNotAllowed)

	other := attendance.UserAttendanceFilter{UserID: outsider.ID}
	require.NoError(t, other.Validate())
	_, err = f.svc.GetUserAttendance(managerCtx, other)
	assert.ErrorIs(t, err, attendance.ErrNotAllowed)
}

func TestAttendanceService_AutoCloseOpen(t *testing.T) {
	f := newFixture(t, config.GeofenceConfig{})
	day := f.shift(t, "Morning", "09:00", "17:00")
	night := f.shift(t, "Night", "22:00", "06:00")
	_, dayCtx := f.user(t, "EMP001", user.RoleEmployee, &day.ID, nil)
	_, nightCtx := f.user(t, "EMP002", user.RoleEmployee, &night.ID, nil)

	f.at("2025-03-17 09:00")
	in, err := f.svc.CheckIn(dayCtx, attendance.CheckInRequest{})
	require.NoError(t, err)
	f.at("2025-03-17 15:00")
	_, err = f.svc.StartBreak(dayCtx, attendance.StartBreakRequest{Type: "coffee"})
	require.NoError(t, err)

	f.at("2025-03-17 22:00")
	_, err = f.svc.CheckIn(nightCtx, attendance.CheckInRequest{})
	require.NoError(t, err)

	// the night shift is still running at 04:00
	f.at("2025-03-18 04:00")
	closed, err := f.svc.AutoCloseOpen(context.Background(), time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	got, err := f.store.Attendances.GetByID(context.Background(), in.ID)
	require.NoError(t, err)
	require.True(t, got.HasCheckedOut())
	assert.Equal(t, "17:00", got.CheckOut.Time.In(time.UTC).Format("15:04"))
	assert.Nil(t, got.ActiveBreak())
	assert.Equal(t, 360, got.WorkingMinutes)
	require.NotNil(t, got.Notes)

	f.at("2025-03-18 10:00")
	closed, err = f.svc.AutoCloseOpen(context.Background(), time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
}

func TestAttendanceService_MarkAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.GeofenceConfig{})
	sh := f.shift(t, "Morning", "09:00", "17:00")
	_, presentCtx := f.user(t, "EMP001", user.RoleEmployee, &sh.ID, nil)
	absent, _ := f.user(t, "EMP002", user.RoleEmployee, &sh.ID, nil)
	onLeave, _ := f.user(t, "EMP003", user.RoleEmployee, &sh.ID, nil)
	f.user(t, "EMP004", user.RoleEmployee, nil, nil)

	monday := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)
	f.at("2025-03-17 09:00")
	_, err := f.svc.CheckIn(presentCtx, attendance.CheckInRequest{})
	require.NoError(t, err)

	_, err = f.store.Leaves.Create(ctx, leave.Leave{
		UserID:      onLeave.ID,
		Type:        leave.TypeSick,
		StartDate:   monday,
		EndDate:     monday.AddDate(0, 0, 1),
		TotalDays:   2,
		Reason:      "flu",
		Status:      leave.StatusApproved,
		AppliedDate: monday.AddDate(0, 0, -3),
	})
	require.NoError(t, err)

	marked, err := f.svc.MarkAbsent(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	rec, err := f.store.Attendances.GetByUserAndDate(ctx, absent.ID, monday)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)

	marked, err = f.svc.MarkAbsent(ctx, monday)
	require.NoError(t, err)
	assert.Zero(t, marked)

	sunday := monday.AddDate(0, 0, -1)
	marked, err = f.svc.MarkAbsent(ctx, sunday)
	require.NoError(t, err)
	assert.Zero(t, marked)

	// an absent record can still be turned into a late check-in
	absentCtx := jwt.WithCaller(ctx, absent.ID, user.RoleEmployee)
	f.at("2025-03-17 11:00")
	in, err := f.svc.CheckIn(absentCtx, attendance.CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, "late", in.Status)
}
