package shift

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type CreateShiftRequest struct {
	Name                     string   `json:"name"`
	Description              *string  `json:"description,omitempty"`
	StartTime                string   `json:"start_time"`
	EndTime                  string   `json:"end_time"`
	WorkingDays              []string `json:"working_days"`
	BreakDurationMinutes     *int     `json:"break_duration,omitempty"`
	LateThresholdMinutes     *int     `json:"late_threshold,omitempty"`
	OvertimeThresholdMinutes *int     `json:"overtime_threshold,omitempty"`
	Color                    *string  `json:"color,omitempty"`
}

func (r *CreateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}
	if len(r.Name) > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not exceed 100 characters",
		})
	}
	if !validator.IsValidClock(r.StartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be in HH:MM format",
		})
	}
	if !validator.IsValidClock(r.EndTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be in HH:MM format",
		})
	}
	if len(r.WorkingDays) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "working_days",
			Message: "at least one working day is required",
		})
	}
	errs = append(errs, validateWorkingDays(r.WorkingDays)...)
	errs = append(errs, validateThresholds(r.BreakDurationMinutes, r.LateThresholdMinutes, r.OvertimeThresholdMinutes)...)
	if r.Color != nil && !validator.IsValidHexColor(*r.Color) {
		errs = append(errs, validator.ValidationError{
			Field:   "color",
			Message: "color must be a hex color such as #3498db",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToEntity applies defaults for omitted thresholds.
func (r *CreateShiftRequest) ToEntity() Shift {
	s := Shift{
		Name:                     r.Name,
		Description:              r.Description,
		StartTime:                r.StartTime,
		EndTime:                  r.EndTime,
		WorkingDays:              normalizeDays(r.WorkingDays),
		BreakDurationMinutes:     DefaultBreakDurationMinutes,
		LateThresholdMinutes:     DefaultLateThresholdMinutes,
		OvertimeThresholdMinutes: DefaultOvertimeThresholdMinutes,
		IsActive:                 true,
		Color:                    DefaultColor,
	}
	if r.BreakDurationMinutes != nil {
		s.BreakDurationMinutes = *r.BreakDurationMinutes
	}
	if r.LateThresholdMinutes != nil {
		s.LateThresholdMinutes = *r.LateThresholdMinutes
	}
	if r.OvertimeThresholdMinutes != nil {
		s.OvertimeThresholdMinutes = *r.OvertimeThresholdMinutes
	}
	if r.Color != nil {
		s.Color = *r.Color
	}
	return s
}

type UpdateShiftRequest struct {
	ID                       string   `json:"-"`
	Name                     *string  `json:"name,omitempty"`
	Description              *string  `json:"description,omitempty"`
	StartTime                *string  `json:"start_time,omitempty"`
	EndTime                  *string  `json:"end_time,omitempty"`
	WorkingDays              []string `json:"working_days,omitempty"`
	BreakDurationMinutes     *int     `json:"break_duration,omitempty"`
	LateThresholdMinutes     *int     `json:"late_threshold,omitempty"`
	OvertimeThresholdMinutes *int     `json:"overtime_threshold,omitempty"`
	IsActive                 *bool    `json:"is_active,omitempty"`
	Color                    *string  `json:"color,omitempty"`
}

func (r *UpdateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not be empty",
		})
	}
	if r.StartTime != nil && !validator.IsValidClock(*r.StartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be in HH:MM format",
		})
	}
	if r.EndTime != nil && !validator.IsValidClock(*r.EndTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be in HH:MM format",
		})
	}
	if r.WorkingDays != nil {
		errs = append(errs, validateWorkingDays(r.WorkingDays)...)
	}
	errs = append(errs, validateThresholds(r.BreakDurationMinutes, r.LateThresholdMinutes, r.OvertimeThresholdMinutes)...)
	if r.Color != nil && !validator.IsValidHexColor(*r.Color) {
		errs = append(errs, validator.ValidationError{
			Field:   "color",
			Message: "color must be a hex color such as #3498db",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Apply copies the set fields onto s.
func (r *UpdateShiftRequest) Apply(s *Shift) {
	if r.Name != nil {
		s.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		s.Description = r.Description
	}
	if r.StartTime != nil {
		s.StartTime = *r.StartTime
	}
	if r.EndTime != nil {
		s.EndTime = *r.EndTime
	}
	if r.WorkingDays != nil {
		s.WorkingDays = normalizeDays(r.WorkingDays)
	}
	if r.BreakDurationMinutes != nil {
		s.BreakDurationMinutes = *r.BreakDurationMinutes
	}
	if r.LateThresholdMinutes != nil {
		s.LateThresholdMinutes = *r.LateThresholdMinutes
	}
	if r.OvertimeThresholdMinutes != nil {
		s.OvertimeThresholdMinutes = *r.OvertimeThresholdMinutes
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
	if r.Color != nil {
		s.Color = *r.Color
	}
}

type AssignUsersRequest struct {
	ShiftID string   `json:"-"`
	UserIDs []string `json:"user_ids"`
}

func (r *AssignUsersRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.UserIDs) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "user_ids",
			Message: "user_ids must be a non-empty array",
		})
	}
	for i, id := range r.UserIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("user_ids[%d]", i),
				Message: "user id must not be empty",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ShiftResponse struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       *string  `json:"description,omitempty"`
	StartTime         string   `json:"start_time"`
	EndTime           string   `json:"end_time"`
	WorkingDays       []string `json:"working_days"`
	BreakDuration     int      `json:"break_duration"`
	LateThreshold     int      `json:"late_threshold"`
	OvertimeThreshold int      `json:"overtime_threshold"`
	TotalHours        float64  `json:"total_hours"`
	IsActive          bool     `json:"is_active"`
	Color             string   `json:"color"`
	AssignedUsers     *int     `json:"assigned_users,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

func ToResponse(s Shift) ShiftResponse {
	return ShiftResponse{
		ID:                s.ID,
		Name:              s.Name,
		Description:       s.Description,
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		WorkingDays:       s.WorkingDays,
		BreakDuration:     s.BreakDurationMinutes,
		LateThreshold:     s.LateThresholdMinutes,
		OvertimeThreshold: s.OvertimeThresholdMinutes,
		TotalHours:        s.TotalHours(),
		IsActive:          s.IsActive,
		Color:             s.Color,
		AssignedUsers:     s.AssignedUsers,
		CreatedAt:         s.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:         s.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

type AssignUsersResponse struct {
	ShiftID       string `json:"shift_id"`
	AssignedCount int    `json:"assigned_count"`
}

type ShiftStatsResponse struct {
	Shift               ShiftResponse `json:"shift"`
	AssignedUsers       int           `json:"assigned_users"`
	PeriodDays          int           `json:"period_days"`
	TotalAttendance     int           `json:"total_attendance"`
	PresentCount        int           `json:"present_count"`
	LateCount           int           `json:"late_count"`
	AverageWorkingHours float64       `json:"average_working_hours"`
}

func validateWorkingDays(days []string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for _, d := range days {
		if !validator.IsInSlice(strings.ToLower(d), Weekdays) {
			errs = append(errs, validator.ValidationError{
				Field:   "working_days",
				Message: "working_days must contain only monday..sunday",
			})
			break
		}
	}
	return errs
}

func validateThresholds(breakMins, lateMins, overtimeMins *int) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if breakMins != nil && *breakMins < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "break_duration",
			Message: "break_duration must not be negative",
		})
	}
	if lateMins != nil && *lateMins < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "late_threshold",
			Message: "late_threshold must not be negative",
		})
	}
	if overtimeMins != nil && *overtimeMins < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "overtime_threshold",
			Message: "overtime_threshold must not be negative",
		})
	}
	return errs
}

func normalizeDays(days []string) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		d = strings.ToLower(d)
		if !validator.IsInSlice(d, out) {
			out = append(out, d)
		}
	}
	return out
}
