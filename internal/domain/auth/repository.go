package auth

import "context"

// TokenRepository persists refresh tokens by hash so they can be revoked.
type TokenRepository interface {
	CreateRefreshToken(ctx context.Context, userID string, token string, expiresAt int64, session SessionTrackingRequest) error
	// IsRefreshTokenRevoked reports true for revoked, expired and unknown tokens.
	IsRefreshTokenRevoked(ctx context.Context, token string) (bool, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}
