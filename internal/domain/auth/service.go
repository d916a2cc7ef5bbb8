package auth

import (
	"context"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
)

type AuthService interface {
	Login(ctx context.Context, req LoginRequest, session SessionTrackingRequest) (TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (AccessTokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (user.UserResponse, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
	// SSEToken issues a short-lived token for EventSource clients, which
	// cannot send an Authorization header.
	SSEToken(ctx context.Context) (SSETokenResponse, error)
}
