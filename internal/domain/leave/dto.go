package leave

import (
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

const (
	MaxAttachments    = 3
	maxAttachmentSize = 5 << 20
)

var attachmentExtensions = []string{".jpg", ".jpeg", ".png", ".pdf", ".doc", ".docx"}

// ========================================
// APPLY
// ========================================

type ApplyLeaveRequest struct {
	Type                string                  `json:"type"`
	StartDate           string                  `json:"start_date"`
	EndDate             string                  `json:"end_date"`
	Reason              string                  `json:"reason"`
	IsHalfDay           bool                    `json:"is_half_day"`
	HalfDayPeriod       *string                 `json:"half_day_period,omitempty"`
	ContactDuringLeave  *Contact                `json:"contact_during_leave,omitempty"`
	HandoverNotes       *string                 `json:"handover_notes,omitempty"`
	ReplacementEmployee *string                 `json:"replacement_employee,omitempty"`
	Files               []*multipart.FileHeader `json:"-"`

	// Parsed by Validate
	Start     time.Time `json:"-"`
	End       time.Time `json:"-"`
	TotalDays float64   `json:"-"`
}

func (r *ApplyLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsInSlice(r.Type, Types) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: " + strings.Join(Types, ", "),
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start date must be a valid date (YYYY-MM-DD)",
		})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end date must be a valid date (YYYY-MM-DD)",
		})
	}
	if startOK && endOK {
		var period HalfDayPeriod
		if r.HalfDayPeriod != nil {
			period = HalfDayPeriod(*r.HalfDayPeriod)
		}
		days, err := ComputeLeaveSpan(start, end, r.IsHalfDay, period)
		if appErr, ok := apperror.As(err); ok {
			errs = append(errs, validator.ValidationError{
				Field:   appErr.Field,
				Message: appErr.Message,
			})
		}
		r.Start, r.End, r.TotalDays = start, end, days
	}

	r.Reason = strings.TrimSpace(r.Reason)
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	} else if len(r.Reason) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 500 characters",
		})
	}

	if c := r.ContactDuringLeave; c != nil {
		if c.Email != nil && *c.Email != "" && !validator.IsValidEmail(*c.Email) {
			errs = append(errs, validator.ValidationError{
				Field:   "contact_during_leave.email",
				Message: "invalid email format",
			})
		}
		if c.Phone != nil && *c.Phone != "" && !validator.IsValidPhoneNumber(*c.Phone) {
			errs = append(errs, validator.ValidationError{
				Field:   "contact_during_leave.phone",
				Message: "invalid phone number",
			})
		}
	}

	if len(r.Files) > MaxAttachments {
		errs = append(errs, validator.ValidationError{
			Field:   "leaveAttachment",
			Message: "at most 3 attachments are allowed",
		})
	}
	for _, fh := range r.Files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !validator.IsInSlice(ext, attachmentExtensions) {
			errs = append(errs, validator.ValidationError{
				Field:   "leaveAttachment",
				Message: "invalid file type: only jpg, jpeg, png, pdf, doc, docx allowed",
			})
			break
		}
		if fh.Size > maxAttachmentSize {
			errs = append(errs, validator.ValidationError{
				Field:   "leaveAttachment",
				Message: "file too large, maximum size is 5MB",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// REVIEW
// ========================================

type ReviewLeaveRequest struct {
	ID             string  `json:"-"`
	Status         string  `json:"status"`
	ReviewComments *string `json:"review_comments,omitempty"`
}

func (r *ReviewLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Status != string(StatusApproved) && r.Status != string(StatusRejected) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be approved or rejected",
		})
	}
	if r.ReviewComments != nil && len(*r.ReviewComments) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "review_comments",
			Message: "review comments must not exceed 500 characters",
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

type LeaveFilter struct {
	UserID     *string `json:"user_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	Type       *string `json:"type,omitempty"`
	Department *string `json:"department,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // applied-to window on start_date
	EndDate    *string `json:"end_date,omitempty"`
	Year       int     `json:"year,omitempty"`

	// Set by the service when the caller may only see their team.
	ManagerID *string `json:"-"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *LeaveFilter) Validate() error {
	errs := validator.Pagination(&f.Page, &f.Limit)

	if f.Status != nil && !validator.IsInSlice(*f.Status, Statuses) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: pending, approved, rejected, cancelled",
		})
	}
	if f.Type != nil && !validator.IsInSlice(*f.Type, Types) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: " + strings.Join(Types, ", "),
		})
	}
	errs = append(errs, validator.OptionalDate("start_date", f.StartDate)...)
	errs = append(errs, validator.OptionalDate("end_date", f.EndDate)...)
	if f.Year < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be a positive number",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// RangeQuery selects leaves overlapping [From, To] for aggregation.
type RangeQuery struct {
	From       time.Time
	To         time.Time
	UserID     *string
	Department *string
	Statuses   []Status
}

// ========================================
// RESPONSES
// ========================================

type LeaveResponse struct {
	ID                  string       `json:"id"`
	UserID              string       `json:"user_id"`
	UserName            *string      `json:"user_name,omitempty"`
	EmployeeID          *string      `json:"employee_id,omitempty"`
	Department          *string      `json:"department,omitempty"`
	Position            *string      `json:"position,omitempty"`
	Type                string       `json:"type"`
	StartDate           string       `json:"start_date"`
	EndDate             string       `json:"end_date"`
	TotalDays           float64      `json:"total_days"`
	Duration            string       `json:"duration"`
	Reason              string       `json:"reason"`
	Status              string       `json:"status"`
	StatusColor         string       `json:"status_color"`
	AppliedDate         string       `json:"applied_date"`
	ReviewedBy          *string      `json:"reviewed_by,omitempty"`
	ReviewerName        *string      `json:"reviewer_name,omitempty"`
	ReviewedAt          *string      `json:"reviewed_at,omitempty"`
	ReviewComments      *string      `json:"review_comments,omitempty"`
	Attachments         []Attachment `json:"attachments"`
	IsHalfDay           bool         `json:"is_half_day"`
	HalfDayPeriod       *string      `json:"half_day_period,omitempty"`
	ContactDuringLeave  *Contact     `json:"contact_during_leave,omitempty"`
	HandoverNotes       *string      `json:"handover_notes,omitempty"`
	ReplacementEmployee *string      `json:"replacement_employee,omitempty"`
	ReplacementName     *string      `json:"replacement_name,omitempty"`
	CreatedAt           string       `json:"created_at"`
	UpdatedAt           string       `json:"updated_at"`
}

func ToResponse(l Leave) LeaveResponse {
	resp := LeaveResponse{
		ID:                  l.ID,
		UserID:              l.UserID,
		UserName:            l.UserName,
		EmployeeID:          l.EmployeeCode,
		Department:          l.UserDepartment,
		Position:            l.UserPosition,
		Type:                string(l.Type),
		StartDate:           l.StartDate.Format("2006-01-02"),
		EndDate:             l.EndDate.Format("2006-01-02"),
		TotalDays:           l.TotalDays,
		Duration:            l.Duration(),
		Reason:              l.Reason,
		Status:              string(l.Status),
		StatusColor:         l.StatusColor(),
		AppliedDate:         l.AppliedDate.Format(time.RFC3339),
		ReviewedBy:          l.ReviewedBy,
		ReviewerName:        l.ReviewerName,
		ReviewComments:      l.ReviewComments,
		Attachments:         l.Attachments,
		IsHalfDay:           l.IsHalfDay,
		ContactDuringLeave:  l.ContactDuringLeave,
		HandoverNotes:       l.HandoverNotes,
		ReplacementEmployee: l.ReplacementEmployeeID,
		ReplacementName:     l.ReplacementName,
		CreatedAt:           l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           l.UpdatedAt.Format(time.RFC3339),
	}
	if resp.Attachments == nil {
		resp.Attachments = []Attachment{}
	}
	if l.ReviewedAt != nil {
		s := l.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	if l.HalfDayPeriod != nil {
		s := string(*l.HalfDayPeriod)
		resp.HalfDayPeriod = &s
	}
	return resp
}

type TypeStat struct {
	Type      string  `json:"type"`
	TotalDays float64 `json:"total_days"`
	Count     int     `json:"count"`
}

type ListLeaveResponse struct {
	TotalCount int64           `json:"-"`
	Page       int             `json:"-"`
	Limit      int             `json:"-"`
	TotalPages int             `json:"-"`
	Showing    string          `json:"-"`
	Leaves     []LeaveResponse `json:"leaves"`

	// Approved days per type; only set for a single user's listing.
	Stats []TypeStat `json:"stats,omitempty"`
}

// Pagination implements response.Page.
func (r ListLeaveResponse) Pagination() (page, limit int, total int64, totalPages int, showing string) {
	return r.Page, r.Limit, r.TotalCount, r.TotalPages, r.Showing
}

type StatusTypeStat struct {
	Status    string  `json:"status"`
	Type      string  `json:"type"`
	Count     int     `json:"count"`
	TotalDays float64 `json:"total_days"`
}

type MonthStatusStat struct {
	Month     int     `json:"month"`
	Status    string  `json:"status"`
	Count     int     `json:"count"`
	TotalDays float64 `json:"total_days"`
}

type LeaveStatsResponse struct {
	Overall []StatusTypeStat  `json:"overall"`
	Monthly []MonthStatusStat `json:"monthly"`
	Year    int               `json:"year"`
}
