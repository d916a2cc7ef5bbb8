package sqlite

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TokenRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
	now    func() time.Time
}

func NewTokenRepository(db *gorm.DB) (*TokenRepository, error) {
	if err := db.AutoMigrate(&refreshTokenModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate refresh tokens: %w", err)
	}
	return &TokenRepository{db: db, logger: newLogger(), now: time.Now}, nil
}

var _ auth.TokenRepository = (*TokenRepository)(nil)

func hashToken(input string) string {
	hash := sha256.Sum256([]byte(input))
	return base64.StdEncoding.EncodeToString(hash[:])
}

func (r *TokenRepository) CreateRefreshToken(ctx context.Context, userID string, token string, expiresAt int64, session auth.SessionTrackingRequest) error {
	m := refreshTokenModel{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
		UserAgent: session.UserAgent,
		IPAddress: session.IPAddress,
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) IsRefreshTokenRevoked(ctx context.Context, token string) (bool, error) {
	var m refreshTokenModel
	err := conn(ctx, r.db).
		Where("token_hash = ?", hashToken(token)).
		Order("expires_at DESC").
		First(&m).Error
	if err != nil {
		if isNotFound(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	return m.RevokedAt != nil || !m.ExpiresAt.After(r.now()), nil
}

func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	err := conn(ctx, r.db).Model(&refreshTokenModel{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashToken(token)).
		Update("revoked_at", r.now()).Error
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	res := conn(ctx, r.db).Model(&refreshTokenModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", r.now())
	if res.Error != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", res.Error)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"revoked": res.RowsAffected,
	}).Info("Refresh tokens revoked")
	return nil
}
