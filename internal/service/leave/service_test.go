package leave

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/sqlite"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *LeaveServiceImpl
	store *sqlite.Store
	local *storage.LocalStorage
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	local, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	f := &fixture{store: store, local: local, clock: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	f.svc = NewLeaveService(store.Transactor, store.Leaves, store.Users, file.NewFileService(local), time.UTC).(*LeaveServiceImpl)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) user(t *testing.T, employeeID string, role user.Role, managerID *string) (user.User, context.Context) {
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
		IsActive:     true,
		ManagerID:    managerID,
	})
	require.NoError(t, err)
	return u, jwt.WithCaller(context.Background(), u.ID, role)
}

func (f *fixture) apply(t *testing.T, ctx context.Context, typ, start, end string) leave.LeaveResponse {
	t.Helper()
	req := leave.ApplyLeaveRequest{Type: typ, StartDate: start, EndDate: end, Reason: "family"}
	require.NoError(t, req.Validate())
	resp, err := f.svc.Apply(ctx, req)
	require.NoError(t, err)
	return resp
}

func formFiles(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := w.CreateFormFile("leaveAttachment", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 certificate"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["leaveAttachment"]
}

func TestLeaveService_Apply(t *testing.T) {
	f := newFixture(t)
	emp, ctx := f.user(t, "EMP001", user.RoleEmployee, nil)
	other, _ := f.user(t, "EMP002", user.RoleEmployee, nil)

	req := leave.ApplyLeaveRequest{
		Type:                "sick",
		StartDate:           "2025-03-12",
		EndDate:             "2025-03-14",
		Reason:              "flu",
		ReplacementEmployee: &other.ID,
		Files:               formFiles(t, "note.pdf"),
	}
	require.NoError(t, req.Validate())

	created, err := f.svc.Apply(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, emp.ID, created.UserID)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 3.0, created.TotalDays)
	assert.Equal(t, "3 days", created.Duration)
	require.Len(t, created.Attachments, 1)
	assert.Equal(t, "note.pdf", created.Attachments[0].FileName)

	exists, err := f.local.Exists(context.Background(), created.Attachments[0].FilePath)
	require.NoError(t, err)
	assert.True(t, exists)

	t.Run("overlapping request", func(t *testing.T) {
		overlapping := leave.ApplyLeaveRequest{Type: "vacation", StartDate: "2025-03-14", EndDate: "2025-03-15", Reason: "trip"}
		require.NoError(t, overlapping.Validate())
		_, err := f.svc.Apply(ctx, overlapping)
		assert.ErrorIs(t, err, leave.ErrOverlappingLeave)
	})

	t.Run("replacement", func(t *testing.T) {
		r := leave.ApplyLeaveRequest{Type: "vacation", StartDate: "2025-04-01", EndDate: "2025-04-01", Reason: "trip", ReplacementEmployee: &emp.ID}
		require.NoError(t, r.Validate())
		_, err := f.svc.Apply(ctx, r)
		assert.ErrorIs(t, err, leave.ErrReplacementIsSelf)

		missing := "00000000-0000-4000-8000-000000000000"
		r.ReplacementEmployee = &missing
		_, err = f.svc.Apply(ctx, r)
		assert.ErrorIs(t, err, leave.ErrNoReplacement)
	})

	t.Run("half day", func(t *testing.T) {
		period := "afternoon"
		r := leave.ApplyLeaveRequest{Type: "personal", StartDate: "2025-05-02", EndDate: "2025-05-02", Reason: "errand", IsHalfDay: true, HalfDayPeriod: &period}
		require.NoError(t, r.Validate())
		resp, err := f.svc.Apply(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, 0.5, resp.TotalDays)
		assert.Equal(t, "Half day (afternoon)", resp.Duration)
	})
}

func TestLeaveService_Review(t *testing.T) {
	f := newFixture(t)
	mgr, mgrCtx := f.user(t, "MGR001", user.RoleManager, nil)
	_, otherMgrCtx := f.user(t, "MGR002", user.RoleManager, nil)
	_, empCtx := f.user(t, "EMP001", user.RoleEmployee, &mgr.ID)

	pending := f.apply(t, empCtx, "vacation", "2025-03-20", "2025-03-21")
	own := f.apply(t, mgrCtx, "vacation", "2025-03-20", "2025-03-20")

	comment := "enjoy"
	approve := leave.ReviewLeaveRequest{ID: pending.ID, Status: "approved", ReviewComments: &comment}

	_, err := f.svc.Review(otherMgrCtx, approve)
	assert.ErrorIs(t, err, leave.ErrNotTeamMember)

	_, err = f.svc.Review(mgrCtx, leave.ReviewLeaveRequest{ID: own.ID, Status: "approved"})
	assert.ErrorIs(t, err, leave.ErrCannotReviewOwn)

	reviewed, err := f.svc.Review(mgrCtx, approve)
	require.NoError(t, err)
	assert.Equal(t, "approved", reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, mgr.ID, *reviewed.ReviewedBy)
	assert.Equal(t, &comment, reviewed.ReviewComments)

	_, err = f.svc.Review(mgrCtx, approve)
	assert.ErrorIs(t, err, leave.ErrAlreadyReviewed)

	_, err = f.svc.Review(mgrCtx, leave.ReviewLeaveRequest{ID: "00000000-0000-4000-8000-000000000000", Status: "approved"})
	assert.ErrorIs(t, err, leave.ErrLeaveNotFound)
}

func TestLeaveService_Cancel(t *testing.T) {
	f := newFixture(t)
	_, empCtx := f.user(t, "EMP001", user.RoleEmployee, nil)
	_, otherCtx := f.user(t, "EMP002", user.RoleEmployee, nil)
	_, hrCtx := f.user(t, "HR001", user.RoleHR, nil)

	future := f.apply(t, empCtx, "vacation", "2025-03-12", "2025-03-13")
	started := f.apply(t, empCtx, "sick", "2025-03-09", "2025-03-10")
	byHR := f.apply(t, empCtx, "personal", "2025-03-20", "2025-03-20")

	_, err := f.svc.Cancel(otherCtx, future.ID)
	assert.ErrorIs(t, err, leave.ErrNotLeaveOwner)

	cancelled, err := f.svc.Cancel(empCtx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)

	_, err = f.svc.Cancel(empCtx, future.ID)
	assert.ErrorIs(t, err, leave.ErrAlreadyCancelled)

	// started yesterday
	_, err = f.svc.Cancel(empCtx, started.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveStarted)

	_, err = f.svc.Cancel(hrCtx, byHR.ID)
	assert.NoError(t, err)

	// the cancelled dates can be requested again
	f.apply(t, empCtx, "vacation", "2025-03-12", "2025-03-12")
}

func TestLeaveService_Listing(t *testing.T) {
	f := newFixture(t)
	mgr, mgrCtx := f.user(t, "MGR001", user.RoleManager, nil)
	member, memberCtx := f.user(t, "EMP001", user.RoleEmployee, &mgr.ID)
	outsider, outsiderCtx := f.user(t, "EMP002", user.RoleEmployee, nil)
	_, adminCtx := f.user(t, "ADM001", user.RoleAdmin, nil)

	first := f.apply(t, memberCtx, "vacation", "2025-03-20", "2025-03-21")
	f.clock = f.clock.Add(time.Hour)
	f.apply(t, outsiderCtx, "sick", "2025-03-11", "2025-03-11")
	f.clock = f.clock.Add(time.Hour)
	second := f.apply(t, memberCtx, "sick", "2025-04-01", "2025-04-01")

	_, err := f.svc.Review(mgrCtx, leave.ReviewLeaveRequest{ID: first.ID, Status: "approved"})
	require.NoError(t, err)

	t.Run("pending oldest first, scoped to team", func(t *testing.T) {
		all, err := f.svc.ListPending(adminCtx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, outsider.ID, all[0].UserID)
		assert.Equal(t, second.ID, all[1].ID)

		team, err := f.svc.ListPending(mgrCtx)
		require.NoError(t, err)
		require.Len(t, team, 1)
		assert.Equal(t, second.ID, team[0].ID)
	})

	t.Run("manager list", func(t *testing.T) {
		resp, err := f.svc.List(mgrCtx, leave.LeaveFilter{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, resp.TotalCount)
		assert.Equal(t, "1-2 of 2", resp.Showing)
		assert.Equal(t, 1, resp.TotalPages)
	})

	t.Run("user leaves with approved stats", func(t *testing.T) {
		resp, err := f.svc.GetUserLeaves(mgrCtx, member.ID, leave.LeaveFilter{Page: 1, Limit: 1})
		require.NoError(t, err)
		assert.EqualValues(t, 2, resp.TotalCount)
		assert.Equal(t, 2, resp.TotalPages)
		assert.Len(t, resp.Leaves, 1)
		require.Len(t, resp.Stats, 1)
		assert.Equal(t, leave.TypeStat{Type: "vacation", TotalDays: 2, Count: 1}, resp.Stats[0])

		_, err = f.svc.GetUserLeaves(mgrCtx, outsider.ID, leave.LeaveFilter{Page: 1, Limit: 10})
		assert.ErrorIs(t, err, leave.ErrNotAllowedToView)

		_, err = f.svc.GetUserLeaves(outsiderCtx, member.ID, leave.LeaveFilter{Page: 1, Limit: 10})
		assert.ErrorIs(t, err, leave.ErrNotAllowedToView)
	})

	t.Run("yearly stats", func(t *testing.T) {
		stats, err := f.svc.Stats(adminCtx)
		require.NoError(t, err)
		assert.Equal(t, 2025, stats.Year)
		assert.Equal(t, []leave.StatusTypeStat{
			{Status: "approved", Type: "vacation", Count: 1, TotalDays: 2},
			{Status: "pending", Type: "sick", Count: 2, TotalDays: 2},
		}, stats.Overall)
		assert.Equal(t, []leave.MonthStatusStat{
			{Month: 3, Status: "approved", Count: 1, TotalDays: 2},
			{Month: 3, Status: "pending", Count: 1, TotalDays: 1},
			{Month: 4, Status: "pending", Count: 1, TotalDays: 1},
		}, stats.Monthly)
	})
}

type undeletable struct {
	file.FileService
}

func (undeletable) DeleteFile(ctx context.Context, key string) error {
	return errors.New("storage unavailable")
}

func TestLeaveService_Apply_LogsFailedCleanup(t *testing.T) {
	f := newFixture(t)
	f.svc.fileService = undeletable{file.NewFileService(f.local)}
	_, ctx := f.user(t, "EMP001", user.RoleEmployee, nil)

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	req := leave.ApplyLeaveRequest{Type: "sick", StartDate: "2025-03-12", EndDate: "2025-03-12", Reason: "flu", Files: formFiles(t, "note.pdf")}
	require.NoError(t, req.Validate())
	// the second file fails to upload after the first was stored
	req.Files = formFiles(t, "note.pdf", "run.exe")

	_, err := f.svc.Apply(ctx, req)
	assert.ErrorIs(t, err, file.ErrInvalidAttachmentType)
	assert.Contains(t, logs.String(), "Failed to delete orphaned leave attachment")
	assert.Contains(t, logs.String(), "storage unavailable")
}
