package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Auth domain errors
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, "Invalid email or password")
		return
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
		return
	case errors.Is(err, auth.ErrRefreshTokenRevoked):
		Unauthorized(w, "Refresh token revoked")
		return
	}

	appErr, ok := apperror.As(err)
	if !ok {
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
		return
	}

	switch {
	case errors.Is(appErr, apperror.ErrValidation):
		ValidationError(w, map[string]string{appErr.Field: appErr.Message})
	case errors.Is(appErr, apperror.ErrNotFound):
		NotFound(w, appErr.Message)
	case errors.Is(appErr, apperror.ErrConflict):
		Conflict(w, appErr.Message)
	case errors.Is(appErr, apperror.ErrForbidden):
		Forbidden(w, appErr.Message)
	case errors.Is(appErr, apperror.ErrBadRequest):
		BadRequest(w, appErr.Message, nil)
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
