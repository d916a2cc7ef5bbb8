package shift

import "context"

type ShiftService interface {
	List(ctx context.Context) ([]ShiftResponse, error)
	Get(ctx context.Context, id string) (ShiftResponse, error)
	Create(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)
	Update(ctx context.Context, req UpdateShiftRequest) (ShiftResponse, error)
	Delete(ctx context.Context, id string) error
	AssignUsers(ctx context.Context, req AssignUsersRequest) (AssignUsersResponse, error)
	Stats(ctx context.Context, id string) (ShiftStatsResponse, error)
}
