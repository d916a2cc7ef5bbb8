package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// Create inserts a new record. A second record for the same user and
	// date fails with ErrAlreadyCheckedIn.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetByUserAndDate returns nil when the user has no record for the date.
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*Attendance, error)

	// Update writes the record if its version still matches and bumps the
	// version. A stale version fails with ErrConcurrentUpdate.
	Update(ctx context.Context, attendance Attendance) (Attendance, error)

	// List retrieves attendance records with filters and pagination
	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)

	// ListRange returns every record in the range, joined with user details,
	// for aggregation.
	ListRange(ctx context.Context, q RangeQuery) ([]Attendance, error)

	// ListOpen returns records dated before the given day that have a
	// check-in and no check-out.
	ListOpen(ctx context.Context, before time.Time) ([]Attendance, error)
}
