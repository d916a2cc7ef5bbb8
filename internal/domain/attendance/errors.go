package attendance

import "github.com/cmlabs-hris/attendance-backend-go/internal/pkg/apperror"

// Attendance domain errors
var (
	// Engine preconditions
	ErrAlreadyCheckedIn  = apperror.Conflict("already checked in today")
	ErrNotCheckedIn      = apperror.NotFound("no check-in found for today")
	ErrAlreadyCheckedOut = apperror.Conflict("already checked out today")
	ErrCheckInRequired   = apperror.Conflict("you must check in first")
	ErrActiveBreakExists = apperror.Conflict("you already have an active break")
	ErrNoActiveBreak     = apperror.NotFound("no active break found")

	// Check-in
	ErrOutsideAllowedRadius = apperror.Forbidden("you are outside the allowed radius")
	ErrLocationRequired     = apperror.Validation("location", "latitude and longitude are required to check in")

	// General
	ErrAttendanceNotFound = apperror.NotFound("attendance record not found")
	ErrConcurrentUpdate   = apperror.Conflict("attendance record was modified concurrently, please retry")
	ErrNotAllowed         = apperror.Forbidden("not allowed to access this attendance record")

	// Correction
	ErrCheckOutBeforeCheckIn = apperror.Validation("check_out_time", "check_out_time must not be before check_in_time")
)
