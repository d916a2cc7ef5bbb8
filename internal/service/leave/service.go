package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime/multipart"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
)

var (
	allTimeFrom = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	allTimeTo   = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

type LeaveServiceImpl struct {
	db database.Transactor
	leave.LeaveRepository
	user.UserRepository
	fileService file.FileService
	loc         *time.Location
	now         func() time.Time
}

func NewLeaveService(
	db database.Transactor,
	leaveRepository leave.LeaveRepository,
	userRepository user.UserRepository,
	fileService file.FileService,
	loc *time.Location,
) leave.LeaveService {
	if loc == nil {
		loc = time.UTC
	}
	return &LeaveServiceImpl{
		db:              db,
		LeaveRepository: leaveRepository,
		UserRepository:  userRepository,
		fileService:     fileService,
		loc:             loc,
		now:             time.Now,
	}
}

// Apply implements leave.LeaveService. req must have been validated, which
// parses the dates and computes the span.
func (s *LeaveServiceImpl) Apply(ctx context.Context, req leave.ApplyLeaveRequest) (leave.LeaveResponse, error) {
	userID, _, err := jwt.Caller(ctx)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	if req.ReplacementEmployee != nil && *req.ReplacementEmployee != "" {
		if *req.ReplacementEmployee == userID {
			return leave.LeaveResponse{}, leave.ErrReplacementIsSelf
		}
		if _, err := s.UserRepository.GetByID(ctx, *req.ReplacementEmployee); err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return leave.LeaveResponse{}, leave.ErrNoReplacement
			}
			return leave.LeaveResponse{}, err
		}
	} else {
		req.ReplacementEmployee = nil
	}

	overlap, err := s.LeaveRepository.HasOverlap(ctx, userID, req.Start, req.End)
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("failed to check overlapping leave: %w", err)
	}
	if overlap {
		return leave.LeaveResponse{}, leave.ErrOverlappingLeave
	}

	attachments, err := s.uploadAttachments(ctx, userID, req.Files)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	newLeave := leave.Leave{
		UserID:                userID,
		Type:                  leave.Type(req.Type),
		StartDate:             req.Start,
		EndDate:               req.End,
		TotalDays:             req.TotalDays,
		Reason:                req.Reason,
		Status:                leave.StatusPending,
		AppliedDate:           s.now(),
		Attachments:           attachments,
		IsHalfDay:             req.IsHalfDay,
		ContactDuringLeave:    req.ContactDuringLeave,
		HandoverNotes:         req.HandoverNotes,
		ReplacementEmployeeID: req.ReplacementEmployee,
	}
	if req.IsHalfDay && req.HalfDayPeriod != nil {
		period := leave.HalfDayPeriod(*req.HalfDayPeriod)
		newLeave.HalfDayPeriod = &period
	}

	var created leave.Leave
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		// re-checked under the transaction against a concurrent request
		overlap, err := s.LeaveRepository.HasOverlap(ctx, userID, req.Start, req.End)
		if err != nil {
			return fmt.Errorf("failed to check overlapping leave: %w", err)
		}
		if overlap {
			return leave.ErrOverlappingLeave
		}

		created, err = s.LeaveRepository.Create(ctx, newLeave)
		return err
	})
	if err != nil {
		s.discard(ctx, attachments)
		return leave.LeaveResponse{}, err
	}

	return leave.ToResponse(created), nil
}

func (s *LeaveServiceImpl) uploadAttachments(ctx context.Context, userID string, files []*multipart.FileHeader) ([]leave.Attachment, error) {
	attachments := make([]leave.Attachment, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			s.discard(ctx, attachments)
			return nil, fmt.Errorf("failed to open attachment: %w", err)
		}

		key, err := s.fileService.UploadLeaveAttachment(ctx, userID, f, fh.Filename)
		f.Close()
		if err != nil {
			s.discard(ctx, attachments)
			return nil, err
		}

		attachments = append(attachments, leave.Attachment{
			FileName:   fh.Filename,
			FilePath:   key,
			FileSize:   fh.Size,
			UploadedAt: s.now(),
		})
	}
	return attachments, nil
}

func (s *LeaveServiceImpl) discard(ctx context.Context, attachments []leave.Attachment) {
	for _, a := range attachments {
		if err := s.fileService.DeleteFile(ctx, a.FilePath); err != nil {
			slog.Warn("Failed to delete orphaned leave attachment", "key", a.FilePath, "error", err)
		}
	}
}

// GetUserLeaves implements leave.LeaveService. The response carries the
// user's approved days per type.
func (s *LeaveServiceImpl) GetUserLeaves(ctx context.Context, userID string, filter leave.LeaveFilter) (leave.ListLeaveResponse, error) {
	if err := s.canView(ctx, userID); err != nil {
		return leave.ListLeaveResponse{}, err
	}

	filter.UserID = &userID
	filter.ManagerID = nil
	resp, err := s.list(ctx, filter)
	if err != nil {
		return leave.ListLeaveResponse{}, err
	}

	approved, err := s.LeaveRepository.ListRange(ctx, leave.RangeQuery{
		From:     allTimeFrom,
		To:       allTimeTo,
		UserID:   &userID,
		Statuses: []leave.Status{leave.StatusApproved},
	})
	if err != nil {
		return leave.ListLeaveResponse{}, fmt.Errorf("failed to load approved leaves: %w", err)
	}
	resp.Stats = typeStats(approved)
	return resp, nil
}

// canView allows the user themselves, admin and hr, and the user's manager.
func (s *LeaveServiceImpl) canView(ctx context.Context, userID string) error {
	callerID, role, err := jwt.Caller(ctx)
	if err != nil {
		return err
	}
	if callerID == userID || role == user.RoleAdmin || role == user.RoleHR {
		return nil
	}
	if role != user.RoleManager {
		return leave.ErrNotAllowedToView
	}

	target, err := s.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if target.ManagerID == nil || *target.ManagerID != callerID {
		return leave.ErrNotAllowedToView
	}
	return nil
}

// List implements leave.LeaveService. Managers only see their team.
func (s *LeaveServiceImpl) List(ctx context.Context, filter leave.LeaveFilter) (leave.ListLeaveResponse, error) {
	callerID, role, err := jwt.Caller(ctx)
	if err != nil {
		return leave.ListLeaveResponse{}, err
	}
	if role == user.RoleManager {
		filter.ManagerID = &callerID
	}
	return s.list(ctx, filter)
}

func (s *LeaveServiceImpl) list(ctx context.Context, filter leave.LeaveFilter) (leave.ListLeaveResponse, error) {
	leaves, total, err := s.LeaveRepository.List(ctx, filter)
	if err != nil {
		return leave.ListLeaveResponse{}, fmt.Errorf("failed to list leaves: %w", err)
	}

	resp := leave.ListLeaveResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Showing:    showing(filter.Page, filter.Limit, len(leaves), total),
		Leaves:     make([]leave.LeaveResponse, 0, len(leaves)),
	}
	if filter.Limit > 0 {
		resp.TotalPages = int(math.Ceil(float64(total) / float64(filter.Limit)))
	}
	for _, l := range leaves {
		resp.Leaves = append(resp.Leaves, leave.ToResponse(l))
	}
	return resp, nil
}

// ListPending implements leave.LeaveService.
func (s *LeaveServiceImpl) ListPending(ctx context.Context) ([]leave.LeaveResponse, error) {
	callerID, role, err := jwt.Caller(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := s.LeaveRepository.ListRange(ctx, leave.RangeQuery{
		From:     allTimeFrom,
		To:       allTimeTo,
		Statuses: []leave.Status{leave.StatusPending},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load pending leaves: %w", err)
	}

	var team map[string]struct{}
	if role == user.RoleManager {
		members, err := s.UserRepository.Find(ctx, user.Query{ManagerID: &callerID})
		if err != nil {
			return nil, fmt.Errorf("failed to load team: %w", err)
		}
		team = make(map[string]struct{}, len(members))
		for _, m := range members {
			team[m.ID] = struct{}{}
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].AppliedDate.Before(pending[j].AppliedDate)
	})

	resp := make([]leave.LeaveResponse, 0, len(pending))
	for _, l := range pending {
		if team != nil {
			if _, ok := team[l.UserID]; !ok {
				continue
			}
		}
		resp = append(resp, leave.ToResponse(l))
	}
	return resp, nil
}

// Review implements leave.LeaveService.
func (s *LeaveServiceImpl) Review(ctx context.Context, req leave.ReviewLeaveRequest) (leave.LeaveResponse, error) {
	callerID, role, err := jwt.Caller(ctx)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	var reviewed leave.Leave
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		l, err := s.LeaveRepository.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if l.Status != leave.StatusPending {
			return leave.ErrAlreadyReviewed
		}
		if l.UserID == callerID {
			return leave.ErrCannotReviewOwn
		}
		if role == user.RoleManager {
			applicant, err := s.UserRepository.GetByID(ctx, l.UserID)
			if err != nil {
				return err
			}
			if applicant.ManagerID == nil || *applicant.ManagerID != callerID {
				return leave.ErrNotTeamMember
			}
		}

		now := s.now()
		l.Status = leave.Status(req.Status)
		l.ReviewedBy = &callerID
		l.ReviewedAt = &now
		l.ReviewComments = req.ReviewComments

		reviewed, err = s.LeaveRepository.Update(ctx, l)
		return err
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	return leave.ToResponse(reviewed), nil
}

// Cancel implements leave.LeaveService. Leaves can be cancelled by their
// owner or by admin and hr until the day they start.
func (s *LeaveServiceImpl) Cancel(ctx context.Context, id string) (leave.LeaveResponse, error) {
	callerID, role, err := jwt.Caller(ctx)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	var cancelled leave.Leave
	err = s.db.WithTransaction(ctx, func(ctx context.Context) error {
		l, err := s.LeaveRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if l.UserID != callerID && role != user.RoleAdmin && role != user.RoleHR {
			return leave.ErrNotLeaveOwner
		}
		if l.Status == leave.StatusCancelled {
			return leave.ErrAlreadyCancelled
		}

		today := s.now().In(s.loc)
		if dayAfter(today, l.StartDate) {
			return leave.ErrLeaveStarted
		}

		l.Status = leave.StatusCancelled
		cancelled, err = s.LeaveRepository.Update(ctx, l)
		return err
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	return leave.ToResponse(cancelled), nil
}

// Stats implements leave.LeaveService for leaves starting in the current year.
func (s *LeaveServiceImpl) Stats(ctx context.Context) (leave.LeaveStatsResponse, error) {
	year := s.now().In(s.loc).Year()
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)

	leaves, err := s.LeaveRepository.ListRange(ctx, leave.RangeQuery{From: from, To: to})
	if err != nil {
		return leave.LeaveStatsResponse{}, fmt.Errorf("failed to load leaves: %w", err)
	}

	leaves = leave.StartingIn(leaves, year)

	type statusType struct{ status, typ string }
	overall := make(map[statusType]*leave.StatusTypeStat)
	for _, l := range leaves {
		k := statusType{string(l.Status), string(l.Type)}
		st, ok := overall[k]
		if !ok {
			st = &leave.StatusTypeStat{Status: k.status, Type: k.typ}
			overall[k] = st
		}
		st.Count++
		st.TotalDays += l.TotalDays
	}

	resp := leave.LeaveStatsResponse{
		Overall: make([]leave.StatusTypeStat, 0, len(overall)),
		Monthly: leave.MonthlyByStatus(leaves),
		Year:    year,
	}
	for _, st := range overall {
		resp.Overall = append(resp.Overall, *st)
	}
	sort.Slice(resp.Overall, func(i, j int) bool {
		if resp.Overall[i].Status != resp.Overall[j].Status {
			return resp.Overall[i].Status < resp.Overall[j].Status
		}
		return resp.Overall[i].Type < resp.Overall[j].Type
	})
	return resp, nil
}

func typeStats(leaves []leave.Leave) []leave.TypeStat {
	byType := make(map[string]*leave.TypeStat)
	for _, l := range leaves {
		st, ok := byType[string(l.Type)]
		if !ok {
			st = &leave.TypeStat{Type: string(l.Type)}
			byType[st.Type] = st
		}
		st.Count++
		st.TotalDays += l.TotalDays
	}

	stats := make([]leave.TypeStat, 0, len(byType))
	for _, st := range byType {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Type < stats[j].Type })
	return stats
}

// dayAfter reports whether a falls on a later calendar day than b.
func dayAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).After(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC))
}

func showing(page, limit, count int, total int64) string {
	if count == 0 {
		return fmt.Sprintf("0 of %d", total)
	}
	from := (page-1)*limit + 1
	return fmt.Sprintf("%d-%d of %d", from, from+count-1, total)
}
