package sqlite

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ShiftRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewShiftRepository(db *gorm.DB) (*ShiftRepository, error) {
	if err := db.AutoMigrate(&shiftModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate shifts: %w", err)
	}
	return &ShiftRepository{db: db, logger: newLogger()}, nil
}

var _ shift.ShiftRepository = (*ShiftRepository)(nil)

func (r *ShiftRepository) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	m := shiftFromDomain(s)
	m.ID = uuid.NewString()

	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return shift.Shift{}, shift.ErrShiftNameExists
		}
		r.logger.WithError(err).Error("Failed to create shift")
		return shift.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"shift_id": m.ID,
		"name":     m.Name,
	}).Info("Shift created")

	return r.GetByID(ctx, m.ID)
}

func (r *ShiftRepository) GetByID(ctx context.Context, id string) (shift.Shift, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *ShiftRepository) GetByName(ctx context.Context, name string) (shift.Shift, error) {
	return r.getOne(ctx, "name = ?", name)
}

func (r *ShiftRepository) getOne(ctx context.Context, where string, arg any) (shift.Shift, error) {
	var m shiftModel
	if err := conn(ctx, r.db).Where(where, arg).First(&m).Error; err != nil {
		if isNotFound(err) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}

	shifts, err := r.withAssignedCounts(ctx, []shiftModel{m})
	if err != nil {
		return shift.Shift{}, err
	}
	return shifts[0], nil
}

func (r *ShiftRepository) List(ctx context.Context, activeOnly bool) ([]shift.Shift, error) {
	q := conn(ctx, r.db)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var models []shiftModel
	if err := q.Order("start_time, name").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return r.withAssignedCounts(ctx, models)
}

func (r *ShiftRepository) withAssignedCounts(ctx context.Context, models []shiftModel) ([]shift.Shift, error) {
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}

	var rows []struct {
		ShiftID string
		Count   int
	}
	if len(ids) > 0 {
		err := conn(ctx, r.db).Model(&userModel{}).
			Select("shift_id, COUNT(*) AS count").
			Where("shift_id IN ?", ids).
			Group("shift_id").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count shift users: %w", err)
		}
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.ShiftID] = row.Count
	}

	shifts := make([]shift.Shift, 0, len(models))
	for _, m := range models {
		s := m.toDomain()
		n := counts[m.ID]
		s.AssignedUsers = &n
		shifts = append(shifts, s)
	}
	return shifts, nil
}

func (r *ShiftRepository) Update(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	m := shiftFromDomain(s)

	res := conn(ctx, r.db).
		Select("name", "description", "start_time", "end_time", "working_days", "break_duration",
			"late_threshold", "overtime_threshold", "is_active", "color", "updated_at").
		Updates(&m)
	if err := res.Error; err != nil {
		if isDuplicate(err) {
			return shift.Shift{}, shift.ErrShiftNameExists
		}
		return shift.Shift{}, fmt.Errorf("failed to update shift: %w", err)
	}
	if res.RowsAffected == 0 {
		return shift.Shift{}, shift.ErrShiftNotFound
	}

	return r.GetByID(ctx, s.ID)
}

func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Delete(&shiftModel{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete shift: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return shift.ErrShiftNotFound
	}

	r.logger.WithField("shift_id", id).Info("Shift deleted")
	return nil
}
