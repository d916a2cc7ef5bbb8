package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/sqlite"
	attendanceService "github.com/cmlabs-hris/attendance-backend-go/internal/service/attendance"
	authService "github.com/cmlabs-hris/attendance-backend-go/internal/service/auth"
	dashboardService "github.com/cmlabs-hris/attendance-backend-go/internal/service/dashboard"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
	leaveService "github.com/cmlabs-hris/attendance-backend-go/internal/service/leave"
	reportService "github.com/cmlabs-hris/attendance-backend-go/internal/service/report"
	shiftService "github.com/cmlabs-hris/attendance-backend-go/internal/service/shift"
	userService "github.com/cmlabs-hris/attendance-backend-go/internal/service/user"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestAccessExp  = "1h"
	handlerTestRefreshExp = "24h"
	handlerTestSecret     = "test-secret-key-for-jwt"
	handlerTestPassword   = "password123"
)

type testServer struct {
	router *chi.Mux
	store  *sqlite.Store
	jwt    jwt.Service
	hub    *sse.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		App:     config.AppConfig{Env: "test", LogLevel: "error", CORSOrigins: []string{"http://localhost:3000"}},
		Storage: config.StorageConfig{Type: "local", BasePath: t.TempDir(), BaseURL: "/uploads"},
	}
	local, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	require.NoError(t, err)
	fileSvc := file.NewFileService(local)

	jwtSvc := jwt.NewJWTService(handlerTestSecret, handlerTestAccessExp, handlerTestRefreshExp)
	hub := sse.NewHub()

	authSvc := authService.NewAuthService(store.Transactor, store.Users, store.Tokens, jwtSvc)
	userSvc := userService.NewUserService(store.Users, store.Shifts, store.Tokens, fileSvc)
	shiftSvc := shiftService.NewShiftService(store.Transactor, store.Shifts, store.Users, store.Attendances, time.UTC)
	attendanceSvc := attendanceService.NewAttendanceService(store.Transactor, store.Attendances, store.Users, store.Shifts, store.Leaves, fileSvc, hub, config.GeofenceConfig{}, time.UTC)
	leaveSvc := leaveService.NewLeaveService(store.Transactor, store.Leaves, store.Users, fileSvc, time.UTC)
	dashboardSvc := dashboardService.NewDashboardService(store.Attendances, store.Users, store.Leaves, store.Shifts, time.UTC)
	reportSvc := reportService.NewReportService(store.Attendances, store.Users, store.Leaves, time.UTC)

	router := NewRouter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), jwtSvc, Handlers{
		Auth:       NewAuthHandler(jwtSvc, authSvc),
		User:       NewUserHandler(userSvc),
		Shift:      NewShiftHandler(shiftSvc),
		Attendance: NewAttendanceHandler(attendanceSvc),
		Leave:      NewLeaveHandler(leaveSvc),
		Dashboard:  NewDashboardHandler(dashboardSvc, jwtSvc, hub),
		Report:     NewReportHandler(reportSvc, time.UTC),
	})

	return &testServer{router: router, store: store, jwt: jwtSvc, hub: hub}
}

// seedUser creates an active user with handlerTestPassword.
func (s *testServer) seedUser(t *testing.T, employeeID string, role user.Role, department string, managerID *string) user.User {
	t.Helper()

	hash, err := authService.HashPassword(handlerTestPassword)
	require.NoError(t, err)

	u, err := s.store.Users.Create(context.Background(), user.User{
		EmployeeID:   employeeID,
		FirstName:    "Test",
		LastName:     employeeID,
		Email:        strings.ToLower(employeeID) + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Department:   department,
		Position:     "Staff",
		HireDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ManagerID:    managerID,
		IsActive:     true,
	})
	require.NoError(t, err)
	return u
}

// token issues an access token without going through the login endpoint.
func (s *testServer) token(t *testing.T, u user.User) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	require.NoError(t, err)
	return token
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *response.Meta `json:"meta"`
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// doJSON sends body as JSON with token as bearer, when set.
func (s *testServer) doJSON(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := s.serve(req)
	return w, decodeResponse(t, w)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return resp
}

func dataAs[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}
