package leave

import "github.com/cmlabs-hris/attendance-backend-go/internal/pkg/apperror"

var (
	// Span
	ErrInvalidDateRange      = apperror.Validation("end_date", "end date must be on or after start date")
	ErrHalfDaySpan           = apperror.Validation("is_half_day", "half-day leave must start and end on the same day")
	ErrHalfDayPeriodRequired = apperror.Validation("half_day_period", "half_day_period must be morning or afternoon for half-day leave")

	// Apply
	ErrOverlappingLeave = apperror.Conflict("you already have a leave request for this period")

	// Review / cancel
	ErrLeaveNotFound     = apperror.NotFound("leave request not found")
	ErrAlreadyReviewed   = apperror.Conflict("leave request has already been reviewed")
	ErrCannotReviewOwn   = apperror.Forbidden("you cannot review your own leave request")
	ErrNotTeamMember     = apperror.Forbidden("you can only review leaves from your team members")
	ErrNotLeaveOwner     = apperror.Forbidden("you can only cancel your own leave requests")
	ErrAlreadyCancelled  = apperror.Conflict("leave request is already cancelled")
	ErrLeaveStarted      = apperror.Conflict("cannot cancel leave that has already started")
	ErrNotAllowedToView  = apperror.Forbidden("not allowed to view these leave requests")
	ErrReplacementIsSelf = apperror.Validation("replacement_employee", "replacement employee cannot be yourself")
	ErrNoReplacement     = apperror.Validation("replacement_employee", "replacement employee does not exist")
)
