package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

const maxCheckPointUpload = 10 << 20

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	StartBreak(w http.ResponseWriter, r *http.Request)
	EndBreak(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	UserAttendance(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// checkPointForm is the multipart body shared by check-in and check-out.
type checkPointForm struct {
	Latitude   *float64
	Longitude  *float64
	Address    *string
	File       multipart.File
	FileHeader *multipart.FileHeader
}

// parseCheckPoint reads coordinates and the optional photo in imageField.
// Plain JSON bodies are accepted too, without a photo.
func parseCheckPoint(r *http.Request, imageField string) (checkPointForm, error) {
	var form checkPointForm

	err := r.ParseMultipartForm(maxCheckPointUpload)
	if errors.Is(err, http.ErrNotMultipart) {
		var body struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
			Address   *string  `json:"address"`
		}
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &body); err != nil {
				return form, err
			}
		}
		form.Latitude, form.Longitude, form.Address = body.Latitude, body.Longitude, body.Address
		return form, nil
	}
	if err != nil {
		return form, err
	}

	var ok bool
	if form.Latitude, ok = formFloat(r, "latitude"); !ok {
		return form, errors.New("latitude must be a number")
	}
	if form.Longitude, ok = formFloat(r, "longitude"); !ok {
		return form, errors.New("longitude must be a number")
	}
	form.Address = formString(r, "address")

	file, fileHeader, err := r.FormFile(imageField)
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		return form, err
	}
	form.File, form.FileHeader = file, fileHeader
	return form, nil
}

// CheckIn handles POST /attendance/checkin
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	form, err := parseCheckPoint(r, "checkInImage")
	if err != nil {
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}
	if form.File != nil {
		defer form.File.Close()
	}

	req := attendance.CheckInRequest{
		Latitude:   form.Latitude,
		Longitude:  form.Longitude,
		Address:    form.Address,
		IPAddress:  r.RemoteAddr,
		Device:     r.UserAgent(),
		File:       form.File,
		FileHeader: form.FileHeader,
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Checked in successfully", result)
}

// CheckOut handles POST /attendance/checkout
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	form, err := parseCheckPoint(r, "checkOutImage")
	if err != nil {
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}
	if form.File != nil {
		defer form.File.Close()
	}

	req := attendance.CheckOutRequest{
		Latitude:   form.Latitude,
		Longitude:  form.Longitude,
		Address:    form.Address,
		IPAddress:  r.RemoteAddr,
		Device:     r.UserAgent(),
		File:       form.File,
		FileHeader: form.FileHeader,
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Checked out successfully", result)
}

// StartBreak handles POST /attendance/break/start
func (h *attendanceHandlerImpl) StartBreak(w http.ResponseWriter, r *http.Request) {
	var req attendance.StartBreakRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.StartBreak(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Break started", result)
}

// EndBreak handles POST /attendance/break/end
func (h *attendanceHandlerImpl) EndBreak(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.EndBreak(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Break ended", result)
}

// Today handles GET /attendance/today
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetToday(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// UserAttendance handles GET /attendance/user/{userId}
func (h *attendanceHandlerImpl) UserAttendance(w http.ResponseWriter, r *http.Request) {
	filter := attendance.UserAttendanceFilter{
		UserID:    chi.URLParam(r, "userId"),
		StartDate: queryString(r, "start_date"),
		EndDate:   queryString(r, "end_date"),
		Month:     getIntQueryParam(r, "month", 0),
		Year:      getIntQueryParam(r, "year", 0),
		Page:      getIntQueryParam(r, "page", 1),
		Limit:     getIntQueryParam(r, "limit", 10),
	}
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetUserAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Paginated(w, result)
}

// List handles GET /attendance
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := attendance.AttendanceFilter{
		Date:       queryString(r, "date"),
		StartDate:  queryString(r, "start_date"),
		EndDate:    queryString(r, "end_date"),
		UserID:     queryString(r, "user_id"),
		Department: queryString(r, "department"),
		Status:     queryString(r, "status"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 10),
		SortBy:     r.URL.Query().Get("sort_by"),
		SortOrder:  r.URL.Query().Get("sort_order"),
	}
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Paginated(w, result)
}

// Update handles PUT /attendance/{id}
func (h *attendanceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req attendance.UpdateAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.UpdateAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Attendance updated successfully", result)
}
