package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeaveRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewLeaveRepository(db *gorm.DB) (*LeaveRepository, error) {
	if err := db.AutoMigrate(&leaveModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate leaves: %w", err)
	}
	return &LeaveRepository{db: db, logger: newLogger()}, nil
}

var _ leave.LeaveRepository = (*LeaveRepository)(nil)

func (r *LeaveRepository) joined(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Model(&leaveModel{}).
		Joins("JOIN users ON users.id = leaves.user_id")
}

func preloadLeave(q *gorm.DB) *gorm.DB {
	return q.Preload("User").Preload("Reviewer").Preload("Replacement")
}

func (r *LeaveRepository) Create(ctx context.Context, l leave.Leave) (leave.Leave, error) {
	m := leaveFromDomain(l)
	m.ID = uuid.NewString()

	if err := conn(ctx, r.db).Omit(clause.Associations).Create(&m).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create leave")
		return leave.Leave{}, fmt.Errorf("failed to create leave: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"leave_id": m.ID,
		"user_id":  m.UserID,
		"type":     m.Type,
		"days":     m.TotalDays,
	}).Info("Leave created")

	return r.GetByID(ctx, m.ID)
}

func (r *LeaveRepository) GetByID(ctx context.Context, id string) (leave.Leave, error) {
	var m leaveModel
	if err := preloadLeave(conn(ctx, r.db)).Where("id = ?", id).First(&m).Error; err != nil {
		if isNotFound(err) {
			return leave.Leave{}, leave.ErrLeaveNotFound
		}
		return leave.Leave{}, fmt.Errorf("failed to get leave: %w", err)
	}
	return m.toDomain(), nil
}

// Update writes the review and cancellation fields; the request itself is immutable.
func (r *LeaveRepository) Update(ctx context.Context, l leave.Leave) (leave.Leave, error) {
	m := leaveFromDomain(l)

	res := conn(ctx, r.db).
		Select("status", "reviewed_by", "reviewed_at", "review_comments", "attachments", "updated_at").
		Omit(clause.Associations).
		Updates(&m)
	if res.Error != nil {
		return leave.Leave{}, fmt.Errorf("failed to update leave: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return leave.Leave{}, leave.ErrLeaveNotFound
	}

	r.logger.WithFields(logrus.Fields{
		"leave_id": m.ID,
		"status":   m.Status,
	}).Info("Leave updated")

	return r.GetByID(ctx, l.ID)
}

func (r *LeaveRepository) List(ctx context.Context, filter leave.LeaveFilter) ([]leave.Leave, int64, error) {
	q := r.joined(ctx)
	if filter.UserID != nil {
		q = q.Where("leaves.user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		q = q.Where("leaves.status = ?", *filter.Status)
	}
	if filter.Type != nil {
		q = q.Where("leaves.type = ?", *filter.Type)
	}
	if filter.Department != nil {
		q = q.Where("users.department = ?", *filter.Department)
	}
	if filter.StartDate != nil {
		q = q.Where("leaves.start_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("leaves.start_date <= ?", *filter.EndDate)
	}
	if filter.Year > 0 {
		q = q.Where("substr(leaves.start_date, 1, 4) = ?", fmt.Sprintf("%04d", filter.Year))
	}
	if filter.ManagerID != nil {
		q = q.Where("users.manager_id = ?", *filter.ManagerID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leaves: %w", err)
	}

	var models []leaveModel
	err := preloadLeave(q).
		Order("leaves.applied_date DESC").
		Limit(filter.Limit).
		Offset(offset(filter.Page, filter.Limit)).
		Find(&models).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leaves: %w", err)
	}
	return leavesToDomain(models), total, nil
}

func (r *LeaveRepository) HasOverlap(ctx context.Context, userID string, start, end time.Time) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&leaveModel{}).
		Where("user_id = ? AND status IN ?", userID, []string{string(leave.StatusPending), string(leave.StatusApproved)}).
		Where("start_date <= ? AND end_date >= ?", formatDay(end), formatDay(start)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check leave overlap: %w", err)
	}
	return count > 0, nil
}

func (r *LeaveRepository) ListRange(ctx context.Context, rq leave.RangeQuery) ([]leave.Leave, error) {
	q := r.joined(ctx).Where("leaves.start_date <= ? AND leaves.end_date >= ?", formatDay(rq.To), formatDay(rq.From))
	if rq.UserID != nil {
		q = q.Where("leaves.user_id = ?", *rq.UserID)
	}
	if rq.Department != nil {
		q = q.Where("users.department = ?", *rq.Department)
	}
	if len(rq.Statuses) > 0 {
		statuses := make([]string, len(rq.Statuses))
		for i, s := range rq.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("leaves.status IN ?", statuses)
	}

	var models []leaveModel
	if err := preloadLeave(q).Order("leaves.start_date, leaves.applied_date").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list leaves: %w", err)
	}
	return leavesToDomain(models), nil
}

func leavesToDomain(models []leaveModel) []leave.Leave {
	leaves := make([]leave.Leave, 0, len(models))
	for _, m := range models {
		leaves = append(leaves, m.toDomain())
	}
	return leaves
}
