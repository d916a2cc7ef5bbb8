package leave

import (
	"context"
	"time"
)

type LeaveRepository interface {
	Create(ctx context.Context, leave Leave) (Leave, error)
	GetByID(ctx context.Context, id string) (Leave, error)
	Update(ctx context.Context, leave Leave) (Leave, error)
	List(ctx context.Context, filter LeaveFilter) ([]Leave, int64, error)

	// HasOverlap reports whether the user holds a pending or approved
	// request intersecting [start, end].
	HasOverlap(ctx context.Context, userID string, start, end time.Time) (bool, error)

	// ListRange returns leaves intersecting the query window.
	ListRange(ctx context.Context, q RangeQuery) ([]Leave, error)
}
