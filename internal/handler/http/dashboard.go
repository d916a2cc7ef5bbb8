package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
)

const keepaliveInterval = 30 * time.Second

type DashboardHandler interface {
	Overview(w http.ResponseWriter, r *http.Request)
	AttendanceAnalytics(w http.ResponseWriter, r *http.Request)
	LeaveAnalytics(w http.ResponseWriter, r *http.Request)
	Realtime(w http.ResponseWriter, r *http.Request)
	// Events streams attendance activity to staff as Server-Sent Events.
	Events(w http.ResponseWriter, r *http.Request)
}

type dashboardHandlerImpl struct {
	dashboardService dashboard.DashboardService
	jwtService       jwt.Service
	hub              *sse.Hub
}

func NewDashboardHandler(dashboardService dashboard.DashboardService, jwtService jwt.Service, hub *sse.Hub) DashboardHandler {
	return &dashboardHandlerImpl{
		dashboardService: dashboardService,
		jwtService:       jwtService,
		hub:              hub,
	}
}

// Overview handles GET /dashboard/overview
func (h *dashboardHandlerImpl) Overview(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboardService.Overview(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// AttendanceAnalytics handles GET /dashboard/analytics/attendance
func (h *dashboardHandlerImpl) AttendanceAnalytics(w http.ResponseWriter, r *http.Request) {
	days := getIntQueryParam(r, "days", 30)

	result, err := h.dashboardService.AttendanceAnalytics(r.Context(), days)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// LeaveAnalytics handles GET /dashboard/analytics/leaves
func (h *dashboardHandlerImpl) LeaveAnalytics(w http.ResponseWriter, r *http.Request) {
	year := getIntQueryParam(r, "year", 0)

	result, err := h.dashboardService.LeaveAnalytics(r.Context(), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Realtime handles GET /dashboard/realtime
func (h *dashboardHandlerImpl) Realtime(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboardService.Realtime(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Events handles GET /dashboard/events?token=. EventSource cannot send an
// Authorization header, so the short-lived SSE token comes in the query.
func (h *dashboardHandlerImpl) Events(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	userID, role, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}
	if role != user.RoleAdmin && role != user.RoleHR {
		response.Forbidden(w, "Access denied: requires one of roles admin, hr")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(sse.TopicAttendance)
	defer cleanup()
	slog.Debug("Dashboard stream opened", "user_id", userID, "subscribers", h.hub.SubscriberCount(sse.TopicAttendance))

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
