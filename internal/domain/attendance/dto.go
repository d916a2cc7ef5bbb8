package attendance

import (
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

const maxPhotoSize = 5 << 20

// ========================================
// CHECK-IN / CHECK-OUT / BREAK
// ========================================

type CheckInRequest struct {
	Latitude   *float64              `json:"latitude,omitempty"`
	Longitude  *float64              `json:"longitude,omitempty"`
	Address    *string               `json:"address,omitempty"`
	IPAddress  string                `json:"-"`
	Device     string                `json:"-"`
	File       multipart.File        `json:"-"`
	FileHeader *multipart.FileHeader `json:"-"`
}

func (r *CheckInRequest) Validate() error {
	errs := validateCoordinates(r.Latitude, r.Longitude)
	errs = append(errs, validatePhoto("checkInImage", r.FileHeader)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Location returns the submitted location, or nil when no coordinates were sent.
func (r *CheckInRequest) Location() *Location {
	return toLocation(r.Latitude, r.Longitude, r.Address)
}

type CheckOutRequest struct {
	Latitude   *float64              `json:"latitude,omitempty"`
	Longitude  *float64              `json:"longitude,omitempty"`
	Address    *string               `json:"address,omitempty"`
	IPAddress  string                `json:"-"`
	Device     string                `json:"-"`
	File       multipart.File        `json:"-"`
	FileHeader *multipart.FileHeader `json:"-"`
}

func (r *CheckOutRequest) Validate() error {
	errs := validateCoordinates(r.Latitude, r.Longitude)
	errs = append(errs, validatePhoto("checkOutImage", r.FileHeader)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *CheckOutRequest) Location() *Location {
	return toLocation(r.Latitude, r.Longitude, r.Address)
}

type StartBreakRequest struct {
	Type  string `json:"type"`
	Notes string `json:"notes"`
}

func (r *StartBreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Type == "" {
		r.Type = string(BreakOther)
	}
	if !validator.IsInSlice(r.Type, BreakTypes) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: lunch, coffee, personal, other",
		})
	}
	if len(r.Notes) > 200 {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes must not exceed 200 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// ADMIN CORRECTION
// ========================================

type UpdateAttendanceRequest struct {
	ID           string  `json:"-"`
	Status       *string `json:"status,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	CheckInTime  *string `json:"check_in_time,omitempty"`  // RFC3339
	CheckOutTime *string `json:"check_out_time,omitempty"` // RFC3339
	Approve      bool    `json:"approve,omitempty"`
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Status != nil && !validator.IsInSlice(*r.Status, Statuses) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: present, absent, late, half-day, overtime",
		})
	}
	if r.Notes != nil && len(*r.Notes) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes must not exceed 500 characters",
		})
	}

	var in, out time.Time
	if r.CheckInTime != nil {
		t, ok := validator.IsValidDateTime(*r.CheckInTime)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "check_in_time",
				Message: "check_in_time must be an RFC3339 timestamp",
			})
		}
		in = t
	}
	if r.CheckOutTime != nil {
		t, ok := validator.IsValidDateTime(*r.CheckOutTime)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out_time",
				Message: "check_out_time must be an RFC3339 timestamp",
			})
		}
		out = t
	}
	if !in.IsZero() && !out.IsZero() && out.Before(in) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out_time",
			Message: "check_out_time must not be before check_in_time",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// FILTERS
// ========================================

type AttendanceFilter struct {
	Date       *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	UserID     *string `json:"user_id,omitempty"`
	Department *string `json:"department,omitempty"`
	Status     *string `json:"status,omitempty"`

	// Set by the service when the caller may only see their team.
	ManagerID *string `json:"-"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, check_in_time, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *AttendanceFilter) Validate() error {
	errs := validator.Pagination(&f.Page, &f.Limit)

	if f.Status != nil && !validator.IsInSlice(*f.Status, Statuses) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: present, absent, late, half-day, overtime",
		})
	}

	errs = append(errs, validator.OptionalDate("date", f.Date)...)
	errs = append(errs, validator.OptionalDate("start_date", f.StartDate)...)
	errs = append(errs, validator.OptionalDate("end_date", f.EndDate)...)

	if f.SortBy != "" {
		validSortFields := []string{"date", "check_in_time", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, check_in_time, status",
			})
		}
	} else {
		f.SortBy = "date"
	}

	if f.SortOrder != "" {
		f.SortOrder = strings.ToLower(f.SortOrder)
		if !validator.IsInSlice(f.SortOrder, []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // newest first
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// UserAttendanceFilter lists one user's records, either by explicit date
// range or by month and year.
type UserAttendanceFilter struct {
	UserID    string  `json:"-"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	Month     int     `json:"month,omitempty"`
	Year      int     `json:"year,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *UserAttendanceFilter) Validate() error {
	errs := validator.Pagination(&f.Page, &f.Limit)

	errs = append(errs, validator.OptionalDate("start_date", f.StartDate)...)
	errs = append(errs, validator.OptionalDate("end_date", f.EndDate)...)

	if f.Month < 0 || f.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if f.Month != 0 && f.Year == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year is required when month is set",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToFilter converts to the generic list filter.
func (f *UserAttendanceFilter) ToFilter() AttendanceFilter {
	filter := AttendanceFilter{
		UserID:    &f.UserID,
		Page:      f.Page,
		Limit:     f.Limit,
		SortBy:    "date",
		SortOrder: "desc",
	}
	if f.StartDate != nil && f.EndDate != nil {
		filter.StartDate = f.StartDate
		filter.EndDate = f.EndDate
	} else if f.Month != 0 {
		first := time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
		start := first.Format("2006-01-02")
		end := first.AddDate(0, 1, -1).Format("2006-01-02")
		filter.StartDate = &start
		filter.EndDate = &end
	}
	return filter
}

// RangeQuery selects records for aggregation. Dates are inclusive.
type RangeQuery struct {
	From       time.Time
	To         time.Time
	UserID     *string
	Department *string
}

// ========================================
// RESPONSES
// ========================================

type CheckPointResponse struct {
	Time     *string   `json:"time,omitempty"`
	Location *Location `json:"location,omitempty"`
	Image    *string   `json:"image,omitempty"`
	Device   *string   `json:"device,omitempty"`
}

type BreakResponse struct {
	StartTime string  `json:"start_time"`
	EndTime   *string `json:"end_time,omitempty"`
	Duration  int     `json:"duration"`
	Type      string  `json:"type"`
	Notes     *string `json:"notes,omitempty"`
}

type AttendanceResponse struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	UserName        *string            `json:"user_name,omitempty"`
	EmployeeID      *string            `json:"employee_id,omitempty"`
	Department      *string            `json:"department,omitempty"`
	Date            string             `json:"date"`
	ShiftID         *string            `json:"shift_id,omitempty"`
	ShiftName       *string            `json:"shift_name,omitempty"`
	CheckIn         CheckPointResponse `json:"check_in"`
	CheckOut        CheckPointResponse `json:"check_out"`
	Breaks          []BreakResponse    `json:"breaks"`
	WorkingMinutes  int                `json:"working_minutes"`
	WorkingHours    float64            `json:"working_hours"`
	OvertimeMinutes int                `json:"overtime_minutes"`
	OvertimeHours   float64            `json:"overtime_hours"`
	IsLate          bool               `json:"is_late"`
	LateMinutes     int                `json:"late_minutes"`
	Status          string             `json:"status"`
	Notes           *string            `json:"notes,omitempty"`
	ApprovedBy      *string            `json:"approved_by,omitempty"`
	ApprovedAt      *string            `json:"approved_at,omitempty"`
	CreatedAt       string             `json:"created_at"`
	UpdatedAt       string             `json:"updated_at"`
}

type TodayResponse struct {
	Attendance    *AttendanceResponse  `json:"attendance"`
	Shift         *shift.ShiftResponse `json:"shift"`
	HasCheckedIn  bool                 `json:"has_checked_in"`
	HasCheckedOut bool                 `json:"has_checked_out"`
	ActiveBreak   *BreakResponse       `json:"active_break"`
}

type ListAttendanceResponse struct {
	TotalCount int64                `json:"-"`
	Page       int                  `json:"-"`
	Limit      int                  `json:"-"`
	TotalPages int                  `json:"-"`
	Showing    string               `json:"-"`
	Attendance []AttendanceResponse `json:"attendance"`
}

// Pagination implements response.Page.
func (r ListAttendanceResponse) Pagination() (page, limit int, total int64, totalPages int, showing string) {
	return r.Page, r.Limit, r.TotalCount, r.TotalPages, r.Showing
}

func ToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		UserName:        a.UserName,
		EmployeeID:      a.EmployeeCode,
		Department:      a.UserDepartment,
		Date:            a.Date.Format("2006-01-02"),
		ShiftID:         a.ShiftID,
		ShiftName:       a.ShiftName,
		CheckIn:         toCheckPointResponse(a.CheckIn),
		CheckOut:        toCheckPointResponse(a.CheckOut),
		Breaks:          make([]BreakResponse, 0, len(a.Breaks)),
		WorkingMinutes:  a.WorkingMinutes,
		WorkingHours:    a.WorkingHours(),
		OvertimeMinutes: a.OvertimeMinutes,
		OvertimeHours:   a.OvertimeHours(),
		IsLate:          a.IsLate,
		LateMinutes:     a.LateMinutes,
		Status:          string(a.Status),
		Notes:           a.Notes,
		ApprovedBy:      a.ApprovedBy,
		ApprovedAt:      formatTime(a.ApprovedAt),
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.Format(time.RFC3339),
	}
	for _, b := range a.Breaks {
		resp.Breaks = append(resp.Breaks, ToBreakResponse(b))
	}
	return resp
}

func ToBreakResponse(b Break) BreakResponse {
	return BreakResponse{
		StartTime: b.StartTime.Format(time.RFC3339),
		EndTime:   formatTime(b.EndTime),
		Duration:  b.Duration,
		Type:      string(b.Type),
		Notes:     b.Notes,
	}
}

func toCheckPointResponse(c CheckPoint) CheckPointResponse {
	resp := CheckPointResponse{
		Time:   formatTime(c.Time),
		Image:  c.Image,
		Device: c.Device,
	}
	if c.Location.Latitude != nil || c.Location.Address != nil {
		loc := c.Location
		resp.Location = &loc
	}
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toLocation(lat, lng *float64, address *string) *Location {
	if lat == nil || lng == nil {
		return nil
	}
	return &Location{Latitude: lat, Longitude: lng, Address: address}
}

func validateCoordinates(lat, lng *float64) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if lat != nil && (*lat < -90 || *lat > 90) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}
	if (lat == nil) != (lng == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "latitude and longitude must be sent together",
		})
	}
	return errs
}

func validatePhoto(field string, header *multipart.FileHeader) validator.ValidationErrors {
	if header == nil {
		return nil
	}
	var errs validator.ValidationErrors
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		errs = append(errs, validator.ValidationError{
			Field:   field,
			Message: "invalid file type: only jpg, jpeg, png allowed",
		})
	} else if header.Size > maxPhotoSize {
		errs = append(errs, validator.ValidationError{
			Field:   field,
			Message: "photo size must not exceed 5MB",
		})
	}
	return errs
}
