package leave

import "context"

type LeaveService interface {
	Apply(ctx context.Context, req ApplyLeaveRequest) (LeaveResponse, error)
	GetUserLeaves(ctx context.Context, userID string, filter LeaveFilter) (ListLeaveResponse, error)
	List(ctx context.Context, filter LeaveFilter) (ListLeaveResponse, error)
	// ListPending is oldest first; managers only see their team.
	ListPending(ctx context.Context) ([]LeaveResponse, error)
	Review(ctx context.Context, req ReviewLeaveRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, id string) (LeaveResponse, error)
	Stats(ctx context.Context) (LeaveStatsResponse, error)
}
