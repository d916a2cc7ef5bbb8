package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

const maxLeaveUpload = 16 << 20

type LeaveHandler interface {
	Apply(w http.ResponseWriter, r *http.Request)
	UserLeaves(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Pending(w http.ResponseWriter, r *http.Request)
	Review(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
}

type leaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &leaveHandlerImpl{leaveService: leaveService}
}

// parseApplyLeave reads a multipart form with up to leave.MaxAttachments
// files under leaveAttachment, or a plain JSON body.
func parseApplyLeave(r *http.Request) (leave.ApplyLeaveRequest, error) {
	var req leave.ApplyLeaveRequest

	err := r.ParseMultipartForm(maxLeaveUpload)
	if errors.Is(err, http.ErrNotMultipart) {
		return req, decodeJSON(r, &req)
	}
	if err != nil {
		return req, err
	}

	req.Type = r.FormValue("type")
	req.StartDate = r.FormValue("start_date")
	req.EndDate = r.FormValue("end_date")
	req.Reason = r.FormValue("reason")
	req.IsHalfDay = r.FormValue("is_half_day") == "true"
	req.HalfDayPeriod = formString(r, "half_day_period")
	req.HandoverNotes = formString(r, "handover_notes")
	req.ReplacementEmployee = formString(r, "replacement_employee")

	if contact := r.FormValue("contact_during_leave"); contact != "" {
		req.ContactDuringLeave = &leave.Contact{}
		if err := json.Unmarshal([]byte(contact), req.ContactDuringLeave); err != nil {
			return req, err
		}
	}

	req.Files = r.MultipartForm.File["leaveAttachment"]
	return req, nil
}

// Apply handles POST /leaves
func (h *leaveHandlerImpl) Apply(w http.ResponseWriter, r *http.Request) {
	req, err := parseApplyLeave(r)
	if err != nil {
		slog.Error("Apply leave parse error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.leaveService.Apply(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	slog.Info("Leave applied", "leave_id", result.ID, "type", result.Type)
	response.Created(w, "Leave application submitted successfully", result)
}

func leaveFilter(r *http.Request) leave.LeaveFilter {
	return leave.LeaveFilter{
		UserID:     queryString(r, "user_id"),
		Status:     queryString(r, "status"),
		Type:       queryString(r, "type"),
		Department: queryString(r, "department"),
		StartDate:  queryString(r, "start_date"),
		EndDate:    queryString(r, "end_date"),
		Year:       getIntQueryParam(r, "year", 0),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 10),
	}
}

// UserLeaves handles GET /leaves/user/{userId}
func (h *leaveHandlerImpl) UserLeaves(w http.ResponseWriter, r *http.Request) {
	filter := leaveFilter(r)
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.leaveService.GetUserLeaves(r.Context(), chi.URLParam(r, "userId"), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Paginated(w, result)
}

// List handles GET /leaves
func (h *leaveHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := leaveFilter(r)
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.leaveService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Paginated(w, result)
}

// Pending handles GET /leaves/pending
func (h *leaveHandlerImpl) Pending(w http.ResponseWriter, r *http.Request) {
	result, err := h.leaveService.ListPending(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Review handles PUT /leaves/{id}/review
func (h *leaveHandlerImpl) Review(w http.ResponseWriter, r *http.Request) {
	var req leave.ReviewLeaveRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.leaveService.Review(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request "+req.Status+" successfully", result)
}

// Cancel handles PUT /leaves/{id}/cancel
func (h *leaveHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	result, err := h.leaveService.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave request cancelled successfully", result)
}

// Stats handles GET /leaves/stats/overview
func (h *leaveHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	result, err := h.leaveService.Stats(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}
