package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewUserRepository(db *gorm.DB) (*UserRepository, error) {
	if err := db.AutoMigrate(&userModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users: %w", err)
	}
	return &UserRepository{db: db, logger: newLogger()}, nil
}

var _ user.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) withJoins(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Preload("Shift").Preload("Manager")
}

func (r *UserRepository) Create(ctx context.Context, newUser user.User) (user.User, error) {
	m := userFromDomain(newUser)
	m.ID = uuid.NewString()

	if err := conn(ctx, r.db).Omit(clause.Associations).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return user.User{}, user.ErrUserExists
		}
		r.logger.WithError(err).Error("Failed to create user")
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id":     m.ID,
		"employee_id": m.EmployeeID,
		"role":        m.Role,
	}).Info("User created")

	return r.GetByID(ctx, m.ID)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.email = ?", strings.ToLower(email))
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (user.User, error) {
	var m userModel
	if err := r.withJoins(ctx).Where(where, arg).First(&m).Error; err != nil {
		if isNotFound(err) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return m.toDomain(), nil
}

func (r *UserRepository) ExistsByEmailOrEmployeeID(ctx context.Context, email, employeeID string, excludeID *string) (bool, error) {
	q := conn(ctx, r.db).Model(&userModel{}).
		Where("(email = ? OR employee_id = ?)", strings.ToLower(email), employeeID)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	m := userFromDomain(u)

	res := conn(ctx, r.db).
		Select("first_name", "last_name", "email", "role", "department", "position",
			"phone", "address", "date_of_birth", "salary", "shift_id", "manager_id", "is_active", "updated_at").
		Omit(clause.Associations).
		Updates(&m)
	if err := res.Error; err != nil {
		if isDuplicate(err) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	if res.RowsAffected == 0 {
		return user.User{}, user.ErrUserNotFound
	}

	return r.GetByID(ctx, u.ID)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.set(ctx, userID, "password_hash", passwordHash)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	res := conn(ctx, r.db).Model(&userModel{}).Where("id = ?", userID).UpdateColumn("last_login", at)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateProfileImage(ctx context.Context, userID, path string) error {
	return r.set(ctx, userID, "profile_image", path)
}

func (r *UserRepository) set(ctx context.Context, userID, column string, value any) error {
	res := conn(ctx, r.db).Model(&userModel{}).Where("id = ?", userID).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter user.UserFilter) ([]user.User, int64, error) {
	q := conn(ctx, r.db).Model(&userModel{})
	if filter.Department != nil {
		q = q.Where("department = ?", *filter.Department)
	}
	if filter.Role != nil {
		q = q.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != nil && *filter.Search != "" {
		like := "%" + strings.ToLower(*filter.Search) + "%"
		q = q.Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(employee_id) LIKE ?)",
			like, like, like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var models []userModel
	err := q.Preload("Shift").Preload("Manager").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(offset(filter.Page, filter.Limit)).
		Find(&models).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return usersToDomain(models), total, nil
}

func (r *UserRepository) Find(ctx context.Context, uq user.Query) ([]user.User, error) {
	q := r.withJoins(ctx)
	if uq.IDs != nil {
		q = q.Where("id IN ?", uq.IDs)
	}
	if uq.Department != nil {
		q = q.Where("department = ?", *uq.Department)
	}
	if uq.ManagerID != nil {
		q = q.Where("manager_id = ?", *uq.ManagerID)
	}
	if uq.ShiftID != nil {
		q = q.Where("shift_id = ?", *uq.ShiftID)
	}
	if uq.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var models []userModel
	if err := q.Order("first_name, last_name").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return usersToDomain(models), nil
}

func (r *UserRepository) AssignShift(ctx context.Context, shiftID string, userIDs []string) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	res := conn(ctx, r.db).Model(&userModel{}).Where("id IN ?", userIDs).Update("shift_id", shiftID)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to assign shift: %w", res.Error)
	}

	r.logger.WithFields(logrus.Fields{
		"shift_id": shiftID,
		"users":    res.RowsAffected,
	}).Info("Shift assigned")

	return int(res.RowsAffected), nil
}

func (r *UserRepository) CountByShift(ctx context.Context, shiftID string) (int, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&userModel{}).Where("shift_id = ?", shiftID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count shift users: %w", err)
	}
	return int(count), nil
}

func (r *UserRepository) Departments(ctx context.Context) ([]string, error) {
	var departments []string
	err := conn(ctx, r.db).Model(&userModel{}).
		Where("is_active = ?", true).
		Distinct().
		Order("department").
		Pluck("department", &departments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

func usersToDomain(models []userModel) []user.User {
	users := make([]user.User, 0, len(models))
	for _, m := range models {
		users = append(users, m.toDomain())
	}
	return users
}
