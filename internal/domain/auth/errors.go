package auth

import (
	"errors"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/apperror"
)

// Authentication failures map to 401 in the HTTP layer.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrRefreshTokenRevoked = errors.New("refresh token has been revoked")
)

var (
	ErrAccountInactive   = apperror.Forbidden("account is deactivated")
	ErrIncorrectPassword = apperror.BadRequest("current password is incorrect")
)
