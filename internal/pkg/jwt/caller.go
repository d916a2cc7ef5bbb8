package jwt

import (
	"context"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Caller returns the subject and role of the verified token carried by ctx.
func Caller(ctx context.Context) (string, user.Role, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", auth.ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" {
		return "", "", auth.ErrInvalidToken
	}
	return userID, user.Role(role), nil
}

// WithCaller returns ctx carrying an already verified token for userID.
// Handlers never use it; it serves jobs and tests that call services directly.
func WithCaller(ctx context.Context, userID string, role user.Role) context.Context {
	token, _ := jwt.NewBuilder().
		Claim("user_id", userID).
		Claim("role", string(role)).
		Claim("type", "access").
		Build()
	return jwtauth.NewContext(ctx, token, nil)
}
