package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stores = *Store

func openStores(t *testing.T) stores {
	t.Helper()

	s, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, Migrate(s.DB))
	return s
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func createUser(t *testing.T, s stores, employeeID, email, department string) user.User {
	t.Helper()
	u, err := s.Users.Create(context.Background(), user.User{
		EmployeeID:   employeeID,
		FirstName:    "Emp",
		LastName:     employeeID,
		Email:        email,
		PasswordHash: "hash",
		Role:         user.RoleEmployee,
		Department:   department,
		Position:     "Engineer",
		HireDate:     day("2024-01-15"),
		IsActive:     true,
	})
	require.NoError(t, err)
	return u
}

func createShift(t *testing.T, s stores, name string) shift.Shift {
	t.Helper()
	sh, err := s.Shifts.Create(context.Background(), shift.Shift{
		Name:                     name,
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
	return sh
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and lookup", func(t *testing.T) {
		s := openStores(t)
		created := createUser(t, s, "EMP001", "ana@example.com", "Engineering")

		assert.NotEmpty(t, created.ID)
		assert.True(t, created.IsActive)

		byEmail, err := s.Users.GetByEmail(ctx, "ANA@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
		assert.Equal(t, "2024-01-15", byEmail.HireDate.Format("2006-01-02"))

		_, err = s.Users.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		s := openStores(t)
		createUser(t, s, "EMP001", "ana@example.com", "Engineering")

		_, err := s.Users.Create(ctx, user.User{
			EmployeeID: "EMP002",
			FirstName:  "Other",
			Email:      "ana@example.com",
			Role:       user.RoleEmployee,
			HireDate:   day("2024-01-15"),
		})
		assert.ErrorIs(t, err, user.ErrUserExists)

		exists, err := s.Users.ExistsByEmailOrEmployeeID(ctx, "x@example.com", "EMP001", nil)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("exists ignores the excluded user", func(t *testing.T) {
		s := openStores(t)
		u := createUser(t, s, "EMP001", "ana@example.com", "Engineering")

		exists, err := s.Users.ExistsByEmailOrEmployeeID(ctx, "ana@example.com", "EMP001", &u.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update keeps inactive flag and joins manager", func(t *testing.T) {
		s := openStores(t)
		manager := createUser(t, s, "MGR001", "boss@example.com", "Engineering")
		u := createUser(t, s, "EMP001", "ana@example.com", "Engineering")

		u.IsActive = false
		u.ManagerID = &manager.ID
		u.Position = "Lead"
		updated, err := s.Users.Update(ctx, u)
		require.NoError(t, err)

		assert.False(t, updated.IsActive)
		assert.Equal(t, "Lead", updated.Position)
		require.NotNil(t, updated.ManagerName)
		assert.Equal(t, "Emp MGR001", *updated.ManagerName)
	})

	t.Run("list filters by search and paginates", func(t *testing.T) {
		s := openStores(t)
		createUser(t, s, "EMP001", "ana@example.com", "Engineering")
		createUser(t, s, "EMP002", "budi@example.com", "Engineering")
		createUser(t, s, "EMP003", "citra@example.com", "Finance")

		search := "budi"
		users, total, err := s.Users.List(ctx, user.UserFilter{Search: &search, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, users, 1)
		assert.Equal(t, "budi@example.com", users[0].Email)

		users, total, err = s.Users.List(ctx, user.UserFilter{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, users, 1)
	})

	t.Run("departments are distinct and sorted", func(t *testing.T) {
		s := openStores(t)
		createUser(t, s, "EMP001", "ana@example.com", "Finance")
		createUser(t, s, "EMP002", "budi@example.com", "Engineering")
		createUser(t, s, "EMP003", "citra@example.com", "Finance")

		departments, err := s.Users.Departments(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Engineering", "Finance"}, departments)
	})
}

func TestShiftRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("assigned users are counted", func(t *testing.T) {
		s := openStores(t)
		sh := createShift(t, s, "Morning")
		a := createUser(t, s, "EMP001", "ana@example.com", "Engineering")
		b := createUser(t, s, "EMP002", "budi@example.com", "Engineering")

		n, err := s.Users.AssignShift(ctx, sh.ID, []string{a.ID, b.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := s.Shifts.GetByID(ctx, sh.ID)
		require.NoError(t, err)
		require.NotNil(t, got.AssignedUsers)
		assert.Equal(t, 2, *got.AssignedUsers)
		assert.Equal(t, sh.WorkingDays, got.WorkingDays)

		count, err := s.Users.CountByShift(ctx, sh.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		u, err := s.Users.GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.NotNil(t, u.ShiftName)
		assert.Equal(t, "Morning", *u.ShiftName)
	})

	t.Run("duplicate name is a conflict", func(t *testing.T) {
		s := openStores(t)
		createShift(t, s, "Morning")

		_, err := s.Shifts.Create(ctx, shift.Shift{Name: "Morning", StartTime: "08:00", EndTime: "16:00", Color: shift.DefaultColor})
		assert.ErrorIs(t, err, shift.ErrShiftNameExists)
	})

	t.Run("list active only and delete", func(t *testing.T) {
		s := openStores(t)
		createShift(t, s, "Morning")
		night := createShift(t, s, "Night")
		night.IsActive = false
		_, err := s.Shifts.Update(ctx, night)
		require.NoError(t, err)

		active, err := s.Shifts.List(ctx, true)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "Morning", active[0].Name)

		require.NoError(t, s.Shifts.Delete(ctx, night.ID))
		assert.ErrorIs(t, s.Shifts.Delete(ctx, night.ID), shift.ErrShiftNotFound)

		_, err = s.Shifts.GetByName(ctx, "Night")
		assert.ErrorIs(t, err, shift.ErrShiftNotFound)
	})
}

func TestAttendanceRepository(t *testing.T) {
	ctx := context.Background()

	checkIn := func(t *testing.T, s stores, userID, date string, at time.Time) attendance.Attendance {
		t.Helper()
		a, err := s.Attendances.Create(ctx, attendance.Attendance{
			UserID:  userID,
			Date:    day(date),
			CheckIn: attendance.CheckPoint{Time: &at},
			Status:  attendance.StatusPresent,
		})
		require.NoError(t, err)
		return a
	}

	t.Run("one record per user and day", func(t *testing.T) {
		s := openStores(t)
		u := createUser(t, s, "EMP001", "ana@example.com", "Engineering")
		at := time.Date(2025, 8, 11, 9, 0, 0, 0, time.UTC)

		created := checkIn(t, s, u.ID, "2025-08-11", at)
		assert.Equal(t, 1, created.Version)
		require.NotNil(t, created.UserName)
		assert.Equal(t, "Emp EMP001", *created.UserName)

		_, err := s.Attendances.Create(ctx, attendance.Attendance{UserID: u.ID, Date: day("2025-08-11"), Status: attendance.StatusPresent})
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

		found, err := s.Attendances.GetByUserAndDate(ctx, u.ID, day("2025-08-11"))
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, created.ID, found.ID)

		missing, err := s.Attendances.GetByUserAndDate(ctx, u.ID, day("2025-08-12"))
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		s := openStores(t)
		u := createUser(t, s, "EMP001", "ana@example.com", "Engineering")
		created := checkIn(t, s, u.ID, "2025-08-11", time.Date(2025, 8, 11, 9, 0, 0, 0, time.UTC))

		first := created
		first.Breaks = append(first.Breaks, attendance.Break{StartTime: time.Date(2025, 8, 11, 12, 0, 0, 0, time.UTC), Type: attendance.BreakLunch})
		updated, err := s.Attendances.Update(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)

		stale := created
		stale.Status = attendance.StatusLate
		_, err = s.Attendances.Update(ctx, stale)
		assert.ErrorIs(t, err, attendance.ErrConcurrentUpdate)

		stored, err := s.Attendances.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusPresent, stored.Status)
		require.Len(t, stored.Breaks, 1)
		assert.Equal(t, attendance.BreakLunch, stored.Breaks[0].Type)

		missing := created
		missing.ID = uuid.NewString()
		_, err = s.Attendances.Update(ctx, missing)
		assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	})

	t.Run("open records before a day", func(t *testing.T) {
		s := openStores(t)
		u := createUser(t, s, "EMP001", "ana@example.com", "Engineering")
		checkIn(t, s, u.ID, "2025-08-10", time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC))
		closed := checkIn(t, s, u.ID, "2025-08-09", time.Date(2025, 8, 9, 9, 0, 0, 0, time.UTC))
		out := time.Date(2025, 8, 9, 17, 0, 0, 0, time.UTC)
		closed.CheckOut.Time = &out
		_, err := s.Attendances.Update(ctx, closed)
		require.NoError(t, err)
		checkIn(t, s, u.ID, "2025-08-11", time.Date(2025, 8, 11, 9, 0, 0, 0, time.UTC))

		open, err := s.Attendances.ListOpen(ctx, day("2025-08-11"))
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, "2025-08-10", open[0].Date.Format("2006-01-02"))
	})

	t.Run("list and range filter by department", func(t *testing.T) {
		s := openStores(t)
		eng := createUser(t, s, "EMP001", "ana@example.com", "Engineering")
		fin := createUser(t, s, "EMP002", "budi@example.com", "Finance")
		checkIn(t, s, eng.ID, "2025-08-11", time.Date(2025, 8, 11, 9, 0, 0, 0, time.UTC))
		checkIn(t, s, fin.ID, "2025-08-11", time.Date(2025, 8, 11, 9, 5, 0, 0, time.UTC))
		checkIn(t, s, eng.ID, "2025-08-12", time.Date(2025, 8, 12, 9, 0, 0, 0, time.UTC))

		department := "Engineering"
		records, total, err := s.Attendances.List(ctx, attendance.AttendanceFilter{Department: &department, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, records, 2)
		assert.Equal(t, "2025-08-12", records[0].Date.Format("2006-01-02"))

		ranged, err := s.Attendances.ListRange(ctx, attendance.RangeQuery{From: day("2025-08-11"), To: day("2025-08-11")})
		require.NoError(t, err)
		assert.Len(t, ranged, 2)
	})
}

func TestLeaveRepository(t *testing.T) {
	ctx := context.Background()

	apply := func(t *testing.T, s stores, userID, start, end string) leave.Leave {
		t.Helper()
		l, err := s.Leaves.Create(ctx, leave.Leave{
			UserID:      userID,
			Type:        leave.TypeVacation,
			StartDate:   day(start),
			EndDate:     day(end),
			TotalDays:   3,
			Reason:      "Family trip",
			Status:      leave.StatusPending,
			AppliedDate: time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC),
			Attachments: []leave.Attachment{{FileName: "ticket.pdf", FilePath: "leaves/x/ticket.pdf", FileSize: 120}},
		})
		require.NoError(t, err)
		return l
	}

	t.Run("overlap only counts blocking requests", func(t *testing.T) {
		s := openStores(t)
		u := createUser(t, s, "EMP001", "ana@example.com", "Engineering")
		l := apply(t, s, u.ID, "2025-08-20", "2025-08-22")

		overlap, err := s.Leaves.HasOverlap(ctx, u.ID, day("2025-08-22"), day("2025-08-25"))
		require.NoError(t, err)
		assert.True(t, overlap)

		overlap, err = s.Leaves.HasOverlap(ctx, u.ID, day("2025-08-23"), day("2025-08-25"))
		require.NoError(t, err)
		assert.False(t, overlap)

		l.Status = leave.StatusCancelled
		_, err = s.Leaves.Update(ctx, l)
		require.NoError(t, err)

		overlap, err = s.Leaves.HasOverlap(ctx, u.ID, day("2025-08-20"), day("2025-08-20"))
		require.NoError(t, err)
		assert.False(t, overlap)
	})

	t.Run("review joins reviewer name", func(t *testing.T) {
		s := openStores(t)
		u := createUser(t, s, "EMP001", "ana@example.com", "Engineering")
		reviewer := createUser(t, s, "HR001", "hr@example.com", "People")
		l := apply(t, s, u.ID, "2025-08-20", "2025-08-22")

		now := time.Now()
		l.Status = leave.StatusApproved
		l.ReviewedBy = &reviewer.ID
		l.ReviewedAt = &now
		reviewed, err := s.Leaves.Update(ctx, l)
		require.NoError(t, err)

		assert.Equal(t, leave.StatusApproved, reviewed.Status)
		require.NotNil(t, reviewed.ReviewerName)
		assert.Equal(t, "Emp HR001", *reviewed.ReviewerName)
		require.Len(t, reviewed.Attachments, 1)
		assert.Equal(t, "ticket.pdf", reviewed.Attachments[0].FileName)
	})

	t.Run("list by year and range by status", func(t *testing.T) {
		s := openStores(t)
		u := createUser(t, s, "EMP001", "ana@example.com", "Engineering")
		apply(t, s, u.ID, "2024-12-30", "2025-01-02")
		apply(t, s, u.ID, "2025-03-03", "2025-03-05")

		leaves, total, err := s.Leaves.List(ctx, leave.LeaveFilter{UserID: &u.ID, Year: 2025, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, leaves, 1)
		assert.Equal(t, "2025-03-03", leaves[0].StartDate.Format("2006-01-02"))

		ranged, err := s.Leaves.ListRange(ctx, leave.RangeQuery{
			From:     day("2025-01-01"),
			To:       day("2025-01-31"),
			Statuses: []leave.Status{leave.StatusPending},
		})
		require.NoError(t, err)
		assert.Len(t, ranged, 1)
	})
}

func TestTokenRepositoryAndTransactor(t *testing.T) {
	ctx := context.Background()

	t.Run("refresh token lifecycle", func(t *testing.T) {
		s := openStores(t)
		u := createUser(t, s, "EMP001", "ana@example.com", "Engineering")
		expires := time.Now().Add(time.Hour).Unix()

		require.NoError(t, s.Tokens.CreateRefreshToken(ctx, u.ID, "token-a", expires, auth.SessionTrackingRequest{UserAgent: "test"}))

		revoked, err := s.Tokens.IsRefreshTokenRevoked(ctx, "token-a")
		require.NoError(t, err)
		assert.False(t, revoked)

		revoked, err = s.Tokens.IsRefreshTokenRevoked(ctx, "unknown")
		require.NoError(t, err)
		assert.True(t, revoked)

		require.NoError(t, s.Tokens.RevokeAllForUser(ctx, u.ID))
		revoked, err = s.Tokens.IsRefreshTokenRevoked(ctx, "token-a")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		s := openStores(t)
		tx := s.Transactor
		boom := errors.New("boom")

		err := tx.WithTransaction(ctx, func(ctx context.Context) error {
			createUserCtx(t, ctx, s, "EMP001", "ana@example.com")
			return tx.WithTransaction(ctx, func(ctx context.Context) error {
				return boom
			})
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.Users.GetByEmail(ctx, "ana@example.com")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

func createUserCtx(t *testing.T, ctx context.Context, s stores, employeeID, email string) {
	t.Helper()
	_, err := s.Users.Create(ctx, user.User{
		EmployeeID: employeeID,
		FirstName:  "Emp",
		Email:      email,
		Role:       user.RoleEmployee,
		HireDate:   day("2024-01-15"),
		IsActive:   true,
	})
	require.NoError(t, err)
}
