package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewAttendanceRepository(db *gorm.DB) (*AttendanceRepository, error) {
	if err := db.AutoMigrate(&attendanceModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate attendances: %w", err)
	}
	return &AttendanceRepository{db: db, logger: newLogger()}, nil
}

var _ attendance.AttendanceRepository = (*AttendanceRepository)(nil)

func (r *AttendanceRepository) joined(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Model(&attendanceModel{}).
		Joins("JOIN users ON users.id = attendances.user_id")
}

func (r *AttendanceRepository) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	m := attendanceFromDomain(a)
	m.ID = uuid.NewString()
	m.Version = 1

	if err := conn(ctx, r.db).Omit(clause.Associations).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
		}
		r.logger.WithError(err).Error("Failed to create attendance")
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"attendance_id": m.ID,
		"user_id":       m.UserID,
		"date":          m.Date,
		"status":        m.Status,
	}).Info("Attendance created")

	return r.GetByID(ctx, m.ID)
}

func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	var m attendanceModel
	err := conn(ctx, r.db).Preload("User").Preload("Shift").Where("id = ?", id).First(&m).Error
	if err != nil {
		if isNotFound(err) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return m.toDomain(), nil
}

func (r *AttendanceRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Attendance, error) {
	var m attendanceModel
	err := conn(ctx, r.db).Preload("User").Preload("Shift").
		Where("user_id = ? AND date = ?", userID, formatDay(date)).
		First(&m).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	a := m.toDomain()
	return &a, nil
}

func (r *AttendanceRepository) Update(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	m := attendanceFromDomain(a)
	m.Version = a.Version + 1
	m.UpdatedAt = time.Now()

	res := conn(ctx, r.db).
		Where("version = ?", a.Version).
		Select("*").
		Omit("user_id", "date", "created_at", clause.Associations).
		Updates(&m)
	if res.Error != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, a.ID); err != nil {
			return attendance.Attendance{}, err
		}
		r.logger.WithFields(logrus.Fields{
			"attendance_id": a.ID,
			"version":       a.Version,
		}).Warn("Stale attendance update rejected")
		return attendance.Attendance{}, attendance.ErrConcurrentUpdate
	}

	a.Version = m.Version
	a.UpdatedAt = m.UpdatedAt
	return a, nil
}

func (r *AttendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := r.joined(ctx)
	if filter.Date != nil {
		q = q.Where("attendances.date = ?", *filter.Date)
	}
	if filter.StartDate != nil {
		q = q.Where("attendances.date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("attendances.date <= ?", *filter.EndDate)
	}
	if filter.UserID != nil {
		q = q.Where("attendances.user_id = ?", *filter.UserID)
	}
	if filter.Department != nil {
		q = q.Where("users.department = ?", *filter.Department)
	}
	if filter.Status != nil {
		q = q.Where("attendances.status = ?", *filter.Status)
	}
	if filter.ManagerID != nil {
		q = q.Where("users.manager_id = ?", *filter.ManagerID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	orderBy := "attendances.date DESC, attendances.check_in_time DESC NULLS LAST"
	if filter.SortBy != "" {
		column := map[string]string{
			"date":          "attendances.date",
			"check_in_time": "attendances.check_in_time",
			"status":        "attendances.status",
		}[filter.SortBy]
		direction := "DESC"
		if filter.SortOrder == "asc" {
			direction = "ASC"
		}
		orderBy = column + " " + direction + ", attendances.id"
	}

	var models []attendanceModel
	err := q.Preload("User").Preload("Shift").
		Order(orderBy).
		Limit(filter.Limit).
		Offset(offset(filter.Page, filter.Limit)).
		Find(&models).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendances: %w", err)
	}
	return attendancesToDomain(models), total, nil
}

func (r *AttendanceRepository) ListRange(ctx context.Context, rq attendance.RangeQuery) ([]attendance.Attendance, error) {
	q := r.joined(ctx).Where("attendances.date BETWEEN ? AND ?", formatDay(rq.From), formatDay(rq.To))
	if rq.UserID != nil {
		q = q.Where("attendances.user_id = ?", *rq.UserID)
	}
	if rq.Department != nil {
		q = q.Where("users.department = ?", *rq.Department)
	}

	var models []attendanceModel
	err := q.Preload("User").Preload("Shift").
		Order("attendances.date, users.first_name, users.last_name").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	return attendancesToDomain(models), nil
}

func (r *AttendanceRepository) ListOpen(ctx context.Context, before time.Time) ([]attendance.Attendance, error) {
	var models []attendanceModel
	err := conn(ctx, r.db).Preload("User").Preload("Shift").
		Where("check_in_time IS NOT NULL AND check_out_time IS NULL AND date < ?", formatDay(before)).
		Order("date").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendances: %w", err)
	}
	return attendancesToDomain(models), nil
}

func attendancesToDomain(models []attendanceModel) []attendance.Attendance {
	records := make([]attendance.Attendance, 0, len(models))
	for _, m := range models {
		records = append(records, m.toDomain())
	}
	return records
}
