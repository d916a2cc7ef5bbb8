package user

import "context"

type UserService interface {
	List(ctx context.Context, filter UserFilter) (ListUserResponse, error)
	Get(ctx context.Context, id string) (UserResponse, error)
	Create(ctx context.Context, req CreateUserRequest) (UserResponse, error)
	Update(ctx context.Context, req UpdateUserRequest) (UserResponse, error)
	UploadProfileImage(ctx context.Context, req UploadProfileImageRequest) (string, error)
	Deactivate(ctx context.Context, id string) error
	Stats(ctx context.Context) (UserStatsResponse, error)
}
