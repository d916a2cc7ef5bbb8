package shift

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

// statsPeriodDays is the look-back window of Stats.
const statsPeriodDays = 30

type ShiftServiceImpl struct {
	db database.Transactor
	shift.ShiftRepository
	user.UserRepository
	attendance.AttendanceRepository
	loc *time.Location
	now func() time.Time
}

func NewShiftService(
	db database.Transactor,
	shiftRepository shift.ShiftRepository,
	userRepository user.UserRepository,
	attendanceRepository attendance.AttendanceRepository,
	loc *time.Location,
) shift.ShiftService {
	if loc == nil {
		loc = time.UTC
	}
	return &ShiftServiceImpl{
		db:                   db,
		ShiftRepository:      shiftRepository,
		UserRepository:       userRepository,
		AttendanceRepository: attendanceRepository,
		loc:                  loc,
		now:                  time.Now,
	}
}

// List implements shift.ShiftService. Only active shifts are listed.
func (s *ShiftServiceImpl) List(ctx context.Context) ([]shift.ShiftResponse, error) {
	shifts, err := s.ShiftRepository.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}

	resp := make([]shift.ShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		resp = append(resp, shift.ToResponse(sh))
	}
	return resp, nil
}

// Get implements shift.ShiftService.
func (s *ShiftServiceImpl) Get(ctx context.Context, id string) (shift.ShiftResponse, error) {
	sh, err := s.ShiftRepository.GetByID(ctx, id)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	return shift.ToResponse(sh), nil
}

// Create implements shift.ShiftService.
func (s *ShiftServiceImpl) Create(ctx context.Context, req shift.CreateShiftRequest) (shift.ShiftResponse, error) {
	if err := s.ensureNameFree(ctx, req.Name, ""); err != nil {
		return shift.ShiftResponse{}, err
	}

	created, err := s.ShiftRepository.Create(ctx, req.ToEntity())
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	return shift.ToResponse(created), nil
}

// Update implements shift.ShiftService.
func (s *ShiftServiceImpl) Update(ctx context.Context, req shift.UpdateShiftRequest) (shift.ShiftResponse, error) {
	existing, err := s.ShiftRepository.GetByID(ctx, req.ID)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	req.Apply(&existing)
	if err := s.ensureNameFree(ctx, existing.Name, existing.ID); err != nil {
		return shift.ShiftResponse{}, err
	}

	updated, err := s.ShiftRepository.Update(ctx, existing)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	return shift.ToResponse(updated), nil
}

func (s *ShiftServiceImpl) ensureNameFree(ctx context.Context, name, selfID string) error {
	other, err := s.ShiftRepository.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, shift.ErrShiftNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check shift name: %w", err)
	}
	if other.ID != selfID {
		return shift.ErrShiftNameExists
	}
	return nil
}

// Delete implements shift.ShiftService. A shift that still has users
// assigned cannot be deleted.
func (s *ShiftServiceImpl) Delete(ctx context.Context, id string) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ShiftRepository.GetByID(ctx, id); err != nil {
			return err
		}

		assigned, err := s.UserRepository.CountByShift(ctx, id)
		if err != nil {
			return err
		}
		if assigned > 0 {
			return shift.ErrShiftHasUsers
		}

		return s.ShiftRepository.Delete(ctx, id)
	})
}

// AssignUsers implements shift.ShiftService. Either every listed user is
// moved to the shift or none is.
func (s *ShiftServiceImpl) AssignUsers(ctx context.Context, req shift.AssignUsersRequest) (shift.AssignUsersResponse, error) {
	ids := unique(req.UserIDs)

	var assigned int
	err := s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ShiftRepository.GetByID(ctx, req.ShiftID); err != nil {
			return err
		}

		found, err := s.UserRepository.Find(ctx, user.Query{IDs: ids})
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		if len(found) != len(ids) {
			return shift.ErrUnknownAssignment
		}

		assigned, err = s.UserRepository.AssignShift(ctx, req.ShiftID, ids)
		return err
	})
	if err != nil {
		return shift.AssignUsersResponse{}, err
	}

	return shift.AssignUsersResponse{ShiftID: req.ShiftID, AssignedCount: assigned}, nil
}

// Stats implements shift.ShiftService over the last 30 days of the shift's
// active users.
func (s *ShiftServiceImpl) Stats(ctx context.Context, id string) (shift.ShiftStatsResponse, error) {
	sh, err := s.ShiftRepository.GetByID(ctx, id)
	if err != nil {
		return shift.ShiftStatsResponse{}, err
	}

	users, err := s.UserRepository.Find(ctx, user.Query{ShiftID: &id, ActiveOnly: true})
	if err != nil {
		return shift.ShiftStatsResponse{}, fmt.Errorf("failed to load shift users: %w", err)
	}

	stats := shift.ShiftStatsResponse{
		Shift:         shift.ToResponse(sh),
		AssignedUsers: len(users),
		PeriodDays:    statsPeriodDays,
	}
	if len(users) == 0 {
		return stats, nil
	}

	members := make(map[string]struct{}, len(users))
	for _, u := range users {
		members[u.ID] = struct{}{}
	}

	to := attendance.DateOnly(s.now(), s.loc)
	from := to.AddDate(0, 0, -(statsPeriodDays - 1))
	records, err := s.AttendanceRepository.ListRange(ctx, attendance.RangeQuery{From: from, To: to})
	if err != nil {
		return shift.ShiftStatsResponse{}, fmt.Errorf("failed to load attendance: %w", err)
	}

	var workedMinutes, workedDays int
	for _, a := range records {
		if _, ok := members[a.UserID]; !ok {
			continue
		}
		stats.TotalAttendance++
		if a.Status != attendance.StatusAbsent {
			stats.PresentCount++
		}
		if a.IsLate {
			stats.LateCount++
		}
		if a.WorkingMinutes > 0 {
			workedMinutes += a.WorkingMinutes
			workedDays++
		}
	}
	if workedDays > 0 {
		avg := float64(workedMinutes) / float64(workedDays) / 60
		stats.AverageWorkingHours = math.Round(avg*100) / 100
	}
	return stats, nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
