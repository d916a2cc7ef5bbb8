package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func login(t *testing.T, s *testServer, email, password string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	return s.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", auth.LoginRequest{Email: email, Password: password})
}

func refreshCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login_Success(t *testing.T) {
	s := newTestServer(t)
	emp := s.seedUser(t, "EMP001", user.RoleEmployee, "Engineering", nil)

	w, resp := login(t, s, "  EMP001@Example.com ", handlerTestPassword)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	tokens := dataAs[auth.TokenResponse](t, resp)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	require.NotNil(t, tokens.User)
	assert.Equal(t, emp.ID, tokens.User.ID)

	cookie := refreshCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, tokens.RefreshToken, cookie.Value)
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "EMP001", user.RoleEmployee, "Engineering", nil)
	inactive := s.seedUser(t, "EMP002", user.RoleEmployee, "Engineering", nil)
	inactive.IsActive = false
	_, err := s.store.Users.Update(context.Background(), inactive)
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		w, resp := login(t, s, "emp001@example.com", "wrong-password")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		w, _ := login(t, s, "nobody@example.com", handlerTestPassword)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("inactive account", func(t *testing.T) {
		w, resp := login(t, s, "emp002@example.com", handlerTestPassword)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "account is deactivated", resp.Error.Message)
	})

	t.Run("validation", func(t *testing.T) {
		w, resp := login(t, s, "not-an-email", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, resp.Error.Details, "email")
		assert.Contains(t, resp.Error.Details, "password")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{"))
		w := s.serve(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	s := newTestServer(t)
	emp := s.seedUser(t, "EMP001", user.RoleEmployee, "Engineering", nil)

	w, resp := s.doJSON(t, http.MethodGet, "/api/v1/auth/me", s.token(t, emp), nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := dataAs[user.UserResponse](t, resp)
	assert.Equal(t, "emp001@example.com", me.Email)

	w, _ = s.doJSON(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.doJSON(t, http.MethodGet, "/api/v1/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RefreshToken_Rejected(t *testing.T) {
	s := newTestServer(t)
	emp := s.seedUser(t, "EMP001", user.RoleEmployee, "Engineering", nil)

	// refresh tokens are not access tokens
	refresh, _, err := s.jwt.GenerateRefreshToken(emp.ID)
	require.NoError(t, err)
	w, _ := s.doJSON(t, http.MethodGet, "/api/v1/auth/me", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RefreshAndLogout(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "EMP001", user.RoleEmployee, "Engineering", nil)

	w, _ := login(t, s, "emp001@example.com", handlerTestPassword)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := refreshCookie(w)
	require.NotNil(t, cookie)

	refresh := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: cookie.Value})
		return s.serve(req)
	}

	w = refresh()
	require.Equal(t, http.StatusOK, w.Code)
	access := dataAs[auth.AccessTokenResponse](t, decodeResponse(t, w))
	assert.NotEmpty(t, access.AccessToken)

	// body fallback
	w, _ = s.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", auth.RefreshTokenRequest{RefreshToken: cookie.Value})
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: cookie.Value})
	w = s.serve(req)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := refreshCookie(w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	w = refresh()
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	s := newTestServer(t)
	emp := s.seedUser(t, "EMP001", user.RoleEmployee, "Engineering", nil)
	token := s.token(t, emp)

	w, resp := s.doJSON(t, http.MethodPut, "/api/v1/auth/change-password", token, auth.ChangePasswordRequest{
		CurrentPassword: handlerTestPassword,
		NewPassword:     "123",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, resp.Error.Details, "new_password")

	w, resp = s.doJSON(t, http.MethodPut, "/api/v1/auth/change-password", token, auth.ChangePasswordRequest{
		CurrentPassword: "wrong-password",
		NewPassword:     "new-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "current password is incorrect", resp.Error.Message)

	w, _ = s.doJSON(t, http.MethodPut, "/api/v1/auth/change-password", token, auth.ChangePasswordRequest{
		CurrentPassword: handlerTestPassword,
		NewPassword:     "new-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = login(t, s, "emp001@example.com", handlerTestPassword)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = login(t, s, "emp001@example.com", "new-password")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_SSEToken(t *testing.T) {
	s := newTestServer(t)
	hr := s.seedUser(t, "HR001", user.RoleHR, "People", nil)

	w, resp := s.doJSON(t, http.MethodGet, "/api/v1/auth/sse-token", s.token(t, hr), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var token auth.SSETokenResponse
	require.NoError(t, json.Unmarshal(resp.Data, &token))
	userID, role, err := s.jwt.ValidateSSEToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, hr.ID, userID)
	assert.Equal(t, user.RoleHR, role)
}
