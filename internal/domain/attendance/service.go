package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)
	StartBreak(ctx context.Context, req StartBreakRequest) (BreakResponse, error)
	EndBreak(ctx context.Context) (BreakResponse, error)

	// GetToday returns the caller's record for today, if any, with their shift.
	GetToday(ctx context.Context) (TodayResponse, error)

	GetUserAttendance(ctx context.Context, filter UserAttendanceFilter) (ListAttendanceResponse, error)
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// UpdateAttendance applies a reviewer's correction and re-derives the
	// computed fields.
	UpdateAttendance(ctx context.Context, req UpdateAttendanceRequest) (AttendanceResponse, error)

	// AutoCloseOpen closes records from before the given day that were never
	// checked out. It returns the number of records closed.
	AutoCloseOpen(ctx context.Context, before time.Time) (int, error)

	// MarkAbsent creates absent records for scheduled users without a record
	// or approved leave on date.
	MarkAbsent(ctx context.Context, date time.Time) (int, error)
}
