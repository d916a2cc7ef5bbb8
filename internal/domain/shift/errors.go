package shift

import "github.com/cmlabs-hris/attendance-backend-go/internal/pkg/apperror"

var (
	ErrShiftNotFound     = apperror.NotFound("shift not found")
	ErrShiftNameExists   = apperror.Conflict("shift with this name already exists")
	ErrShiftHasUsers     = apperror.Conflict("cannot delete shift with assigned users")
	ErrNoShiftAssigned   = apperror.BadRequest("no shift assigned to user")
	ErrUnknownAssignment = apperror.Validation("user_ids", "one or more users do not exist")
)
