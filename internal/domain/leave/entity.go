package leave

import (
	"fmt"
	"time"
)

type Type string

const (
	TypeSick        Type = "sick"
	TypeVacation    Type = "vacation"
	TypePersonal    Type = "personal"
	TypeMaternity   Type = "maternity"
	TypePaternity   Type = "paternity"
	TypeEmergency   Type = "emergency"
	TypeBereavement Type = "bereavement"
	TypeOther       Type = "other"
)

var Types = []string{
	string(TypeSick),
	string(TypeVacation),
	string(TypePersonal),
	string(TypeMaternity),
	string(TypePaternity),
	string(TypeEmergency),
	string(TypeBereavement),
	string(TypeOther),
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

var Statuses = []string{
	string(StatusPending),
	string(StatusApproved),
	string(StatusRejected),
	string(StatusCancelled),
}

type HalfDayPeriod string

const (
	PeriodMorning   HalfDayPeriod = "morning"
	PeriodAfternoon HalfDayPeriod = "afternoon"
)

type Attachment struct {
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Contact struct {
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

type Leave struct {
	ID                    string
	UserID                string
	Type                  Type
	StartDate             time.Time
	EndDate               time.Time
	TotalDays             float64
	Reason                string
	Status                Status
	AppliedDate           time.Time
	ReviewedBy            *string
	ReviewedAt            *time.Time
	ReviewComments        *string
	Attachments           []Attachment
	IsHalfDay             bool
	HalfDayPeriod         *HalfDayPeriod
	ContactDuringLeave    *Contact
	HandoverNotes         *string
	ReplacementEmployeeID *string
	CreatedAt             time.Time
	UpdatedAt             time.Time

	// DTO / Join
	UserName        *string
	EmployeeCode    *string
	UserDepartment  *string
	UserPosition    *string
	ReviewerName    *string
	ReplacementName *string
}

// Blocking reports whether the request still reserves its dates.
func (l Leave) Blocking() bool {
	return l.Status == StatusPending || l.Status == StatusApproved
}

// Duration is the human readable length, e.g. "Half day (morning)" or "3 days".
func (l Leave) Duration() string {
	switch {
	case l.TotalDays == 0.5 && l.HalfDayPeriod != nil:
		return fmt.Sprintf("Half day (%s)", *l.HalfDayPeriod)
	case l.TotalDays == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%g days", l.TotalDays)
	}
}

// StatusColor is the display color used by the dashboards.
func (l Leave) StatusColor() string {
	switch l.Status {
	case StatusPending:
		return "#f39c12"
	case StatusApproved:
		return "#27ae60"
	case StatusRejected:
		return "#e74c3c"
	default:
		return "#95a5a6"
	}
}
