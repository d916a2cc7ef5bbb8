package postgresql_test

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
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedShiftAndUser(t *testing.T, ctx context.Context, db *database.DB) (shift.Shift, user.User) {
	t.Helper()

	s, err := postgresql.NewShiftRepository(db).Create(ctx, shift.Shift{
		Name: "Morning", StartTime: "09:00", EndTime: "17:00",
		WorkingDays:          []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		BreakDurationMinutes: 60, LateThresholdMinutes: 15, OvertimeThresholdMinutes: 480,
		IsActive: true, Color: shift.DefaultColor,
	})
	require.NoError(t, err)

	u, err := postgresql.NewUserRepository(db).Create(ctx, user.User{
		EmployeeID: "EMP001", FirstName: "Ana", LastName: "Putri", Email: "ana@example.com",
		PasswordHash: "hash", Role: user.RoleEmployee, Department: "Engineering", Position: "Engineer",
		HireDate: date(2024, 1, 2), ShiftID: &s.ID, IsActive: true,
	})
	require.NoError(t, err)
	return s, u
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewUserRepository(db)
	s, u := seedShiftAndUser(t, ctx, db)

	t.Run("get joins shift name", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "ANA@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		require.NotNil(t, got.ShiftName)
		assert.Equal(t, "Morning", *got.ShiftName)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := repo.Create(ctx, user.User{
			EmployeeID: "EMP002", FirstName: "B", LastName: "C", Email: "ana@example.com",
			PasswordHash: "h", Role: user.RoleEmployee, Department: "X", Position: "Y",
			HireDate: date(2024, 1, 2), IsActive: true,
		})
		assert.ErrorIs(t, err, user.ErrUserExists)
	})

	t.Run("exists excludes self", func(t *testing.T) {
		exists, err := repo.ExistsByEmailOrEmployeeID(ctx, "ana@example.com", "EMP001", &u.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = repo.ExistsByEmailOrEmployeeID(ctx, "other@example.com", "EMP001", nil)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("list search and count by shift", func(t *testing.T) {
		search := "putri"
		users, total, err := repo.List(ctx, user.UserFilter{Search: &search, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Len(t, users, 1)

		count, err := repo.CountByShift(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		departments, err := repo.Departments(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Engineering"}, departments)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

func TestAttendanceRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)
	s, u := seedShiftAndUser(t, ctx, db)

	checkIn := time.Date(2025, 8, 11, 9, 20, 0, 0, time.UTC)
	created, err := repo.Create(ctx, attendance.Attendance{
		UserID: u.ID, Date: date(2025, 8, 11), ShiftID: &s.ID,
		CheckIn: attendance.CheckPoint{Time: &checkIn},
		IsLate:  true, LateMinutes: 5, Status: attendance.StatusLate,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, "Ana Putri", *created.UserName)

	t.Run("second record for the same day", func(t *testing.T) {
		_, err := repo.Create(ctx, attendance.Attendance{UserID: u.ID, Date: date(2025, 8, 11), Status: attendance.StatusPresent})
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	})

	t.Run("version compare and swap", func(t *testing.T) {
		first := created
		first.Breaks = []attendance.Break{{StartTime: checkIn.Add(3 * time.Hour), Type: attendance.BreakLunch}}
		updated, err := repo.Update(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)

		stale := created
		_, err = repo.Update(ctx, stale)
		assert.ErrorIs(t, err, attendance.ErrConcurrentUpdate)

		got, err := repo.GetByUserAndDate(ctx, u.ID, date(2025, 8, 11))
		require.NoError(t, err)
		require.Len(t, got.Breaks, 1)
		assert.True(t, got.Breaks[0].Active())
	})

	t.Run("missing day is nil", func(t *testing.T) {
		got, err := repo.GetByUserAndDate(ctx, u.ID, date(2025, 8, 12))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("open and range queries", func(t *testing.T) {
		open, err := repo.ListOpen(ctx, date(2025, 8, 12))
		require.NoError(t, err)
		assert.Len(t, open, 1)

		open, err = repo.ListOpen(ctx, date(2025, 8, 11))
		require.NoError(t, err)
		assert.Empty(t, open)

		dept := "Engineering"
		records, err := repo.ListRange(ctx, attendance.RangeQuery{From: date(2025, 8, 1), To: date(2025, 8, 31), Department: &dept})
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("list filter by status", func(t *testing.T) {
		status := string(attendance.StatusLate)
		records, total, err := repo.List(ctx, attendance.AttendanceFilter{Status: &status, Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Len(t, records, 1)
	})
}

func TestLeaveRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewLeaveRepository(db)
	_, u := seedShiftAndUser(t, ctx, db)

	created, err := repo.Create(ctx, leave.Leave{
		UserID: u.ID, Type: leave.TypeVacation, StartDate: date(2025, 8, 10), EndDate: date(2025, 8, 12),
		TotalDays: 3, Reason: "Trip", Status: leave.StatusPending, AppliedDate: time.Now(),
		Attachments: []leave.Attachment{{FileName: "a.pdf", FilePath: "leaves/a.pdf", FileSize: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, created.TotalDays)
	assert.Len(t, created.Attachments, 1)

	t.Run("overlap", func(t *testing.T) {
		overlap, err := repo.HasOverlap(ctx, u.ID, date(2025, 8, 12), date(2025, 8, 14))
		require.NoError(t, err)
		assert.True(t, overlap)

		overlap, err = repo.HasOverlap(ctx, u.ID, date(2025, 8, 13), date(2025, 8, 14))
		require.NoError(t, err)
		assert.False(t, overlap)
	})

	t.Run("cancelled leave frees the dates", func(t *testing.T) {
		created.Status = leave.StatusCancelled
		_, err := repo.Update(ctx, created)
		require.NoError(t, err)

		overlap, err := repo.HasOverlap(ctx, u.ID, date(2025, 8, 10), date(2025, 8, 10))
		require.NoError(t, err)
		assert.False(t, overlap)
	})

	t.Run("range by status", func(t *testing.T) {
		leaves, err := repo.ListRange(ctx, leave.RangeQuery{
			From: date(2025, 8, 1), To: date(2025, 8, 31), Statuses: []leave.Status{leave.StatusApproved},
		})
		require.NoError(t, err)
		assert.Empty(t, leaves)
	})
}

func TestTokenRepositoryAndTransactor(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, u := seedShiftAndUser(t, ctx, db)
	tokens := postgresql.NewTokenRepository(db)
	tx := postgresql.NewTransactor(db)

	t.Run("rollback discards writes", func(t *testing.T) {
		boom := errors.New("boom")
		err := tx.WithTransaction(ctx, func(ctx context.Context) error {
			require.NoError(t, tokens.CreateRefreshToken(ctx, u.ID, "rolled-back", time.Now().Add(time.Hour).Unix(), auth.SessionTrackingRequest{}))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		revoked, err := tokens.IsRefreshTokenRevoked(ctx, "rolled-back")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("revoke", func(t *testing.T) {
		require.NoError(t, tokens.CreateRefreshToken(ctx, u.ID, "live", time.Now().Add(time.Hour).Unix(), auth.SessionTrackingRequest{UserAgent: "test"}))
		revoked, err := tokens.IsRefreshTokenRevoked(ctx, "live")
		require.NoError(t, err)
		assert.False(t, revoked)

		require.NoError(t, tokens.RevokeAllForUser(ctx, u.ID))
		revoked, err = tokens.IsRefreshTokenRevoked(ctx, "live")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}
