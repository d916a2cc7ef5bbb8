package user

import (
	"context"
	"time"
)

type UserRepository interface {
	Create(ctx context.Context, newUser User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)

	// ExistsByEmailOrEmployeeID ignores the user with excludeID, if set.
	ExistsByEmailOrEmployeeID(ctx context.Context, email, employeeID string, excludeID *string) (bool, error)

	Update(ctx context.Context, u User) (User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	UpdateProfileImage(ctx context.Context, userID, path string) error

	List(ctx context.Context, filter UserFilter) ([]User, int64, error)
	Find(ctx context.Context, q Query) ([]User, error)

	// AssignShift points every listed user at the shift and returns how many
	// rows were updated.
	AssignShift(ctx context.Context, shiftID string, userIDs []string) (int, error)
	CountByShift(ctx context.Context, shiftID string) (int, error)

	// Departments lists the distinct departments of active users, sorted.
	Departments(ctx context.Context) ([]string, error)
}
