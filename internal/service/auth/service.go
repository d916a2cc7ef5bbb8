package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	user.UserRepository
	auth.TokenRepository
	jwt.Service
	transactor database.Transactor
	now        func() time.Time
}

func NewAuthService(transactor database.Transactor, userRepository user.UserRepository, tokenRepository auth.TokenRepository, jwtService jwt.Service) auth.AuthService {
	return &AuthServiceImpl{
		UserRepository:  userRepository,
		TokenRepository: tokenRepository,
		Service:         jwtService,
		transactor:      transactor,
		now:             time.Now,
	}
}

// HashPassword is shared with the user service and the seeder.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, loginReq auth.LoginRequest, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	var tokenResponse auth.TokenResponse

	userData, err := a.UserRepository.GetByEmail(ctx, loginReq.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userData.PasswordHash), []byte(loginReq.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if !userData.IsActive {
		return auth.TokenResponse{}, auth.ErrAccountInactive
	}

	err = a.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		tokenResponse.AccessToken, tokenResponse.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(userData.ID, userData.Email, userData.Role)
		if err != nil {
			return fmt.Errorf("failed to create access token: %w", err)
		}
		tokenResponse.RefreshToken, tokenResponse.RefreshTokenExpiresIn, err = a.Service.GenerateRefreshToken(userData.ID)
		if err != nil {
			return fmt.Errorf("failed to create refresh token: %w", err)
		}

		err = a.CreateRefreshToken(txCtx, userData.ID, tokenResponse.RefreshToken, tokenResponse.RefreshTokenExpiresIn, sessionTrackReq)
		if err != nil {
			return fmt.Errorf("failed to save refresh token to database: %w", err)
		}

		now := a.now()
		if err := a.UserRepository.UpdateLastLogin(txCtx, userData.ID, now); err != nil {
			return fmt.Errorf("failed to update last login: %w", err)
		}
		userData.LastLogin = &now
		return nil
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}

	resp := user.ToResponse(userData)
	tokenResponse.User = &resp
	return tokenResponse, nil
}

// RefreshToken implements auth.AuthService.
func (a *AuthServiceImpl) RefreshToken(ctx context.Context, req auth.RefreshTokenRequest) (auth.AccessTokenResponse, error) {
	var accessTokenResponse auth.AccessTokenResponse

	token, err := jwtauth.VerifyToken(a.JWTAuth(), req.RefreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	claims, err := token.AsMap(ctx)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}
	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "refresh" {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	isRevoked, err := a.TokenRepository.IsRefreshTokenRevoked(ctx, req.RefreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if isRevoked {
		return auth.AccessTokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	userData, err := a.UserRepository.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.AccessTokenResponse{}, auth.ErrInvalidToken
		}
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to get user: %w", err)
	}
	if !userData.IsActive {
		return auth.AccessTokenResponse{}, auth.ErrAccountInactive
	}

	accessTokenResponse.AccessToken, accessTokenResponse.AccessTokenExpiresIn, err =
		a.Service.GenerateAccessToken(userData.ID, userData.Email, userData.Role)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessTokenResponse, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := a.TokenRepository.RevokeRefreshToken(ctx, token); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// Me implements auth.AuthService.
func (a *AuthServiceImpl) Me(ctx context.Context) (user.UserResponse, error) {
	userID, _, err := jwt.Caller(ctx)
	if err != nil {
		return user.UserResponse{}, err
	}

	userData, err := a.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.ToResponse(userData), nil
}

// ChangePassword implements auth.AuthService. Every refresh token of the
// user is revoked so other sessions have to log in again.
func (a *AuthServiceImpl) ChangePassword(ctx context.Context, req auth.ChangePasswordRequest) error {
	userID, _, err := jwt.Caller(ctx)
	if err != nil {
		return err
	}

	userData, err := a.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(userData.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return auth.ErrIncorrectPassword
	}

	hashed, err := HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return a.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := a.UserRepository.UpdatePassword(txCtx, userID, hashed); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := a.TokenRepository.RevokeAllForUser(txCtx, userID); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return nil
	})
}

// SSEToken implements auth.AuthService.
func (a *AuthServiceImpl) SSEToken(ctx context.Context) (auth.SSETokenResponse, error) {
	userID, role, err := jwt.Caller(ctx)
	if err != nil {
		return auth.SSETokenResponse{}, err
	}

	token, expiresIn, err := a.Service.GenerateSSEToken(userID, role)
	if err != nil {
		return auth.SSETokenResponse{}, fmt.Errorf("failed to generate sse token: %w", err)
	}
	return auth.SSETokenResponse{Token: token, ExpiresIn: expiresIn}, nil
}
