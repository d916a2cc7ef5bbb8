package user

import "github.com/cmlabs-hris/attendance-backend-go/internal/pkg/apperror"

var (
	ErrUserNotFound            = apperror.NotFound("user not found")
	ErrUserExists              = apperror.Conflict("user with this email or employee ID already exists")
	ErrUserInactive            = apperror.Forbidden("account is deactivated")
	ErrNoImageProvided         = apperror.BadRequest("no image file provided")
	ErrInsufficientPermissions = apperror.Forbidden("insufficient permissions")
	ErrManagerNotFound         = apperror.Validation("manager_id", "manager does not exist")
)
