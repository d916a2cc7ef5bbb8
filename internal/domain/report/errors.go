package report

import "github.com/cmlabs-hris/attendance-backend-go/internal/pkg/apperror"

var (
	ErrUserNotFound = apperror.NotFound("user not found")
)
