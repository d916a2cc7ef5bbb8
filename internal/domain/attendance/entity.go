package attendance

import (
	"fmt"
	"math"
	"time"
)

type Status string

const (
	StatusPresent  Status = "present"
	StatusAbsent   Status = "absent"
	StatusLate     Status = "late"
	StatusHalfDay  Status = "half-day"
	StatusOvertime Status = "overtime"
)

var Statuses = []string{
	string(StatusPresent),
	string(StatusAbsent),
	string(StatusLate),
	string(StatusHalfDay),
	string(StatusOvertime),
}

type BreakType string

const (
	BreakLunch    BreakType = "lunch"
	BreakCoffee   BreakType = "coffee"
	BreakPersonal BreakType = "personal"
	BreakOther    BreakType = "other"
)

var BreakTypes = []string{
	string(BreakLunch),
	string(BreakCoffee),
	string(BreakPersonal),
	string(BreakOther),
}

type Location struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   *string  `json:"address,omitempty"`
}

// CheckPoint is one end of the working day.
type CheckPoint struct {
	Time      *time.Time `json:"time,omitempty"`
	Location  Location   `json:"location"`
	Image     *string    `json:"image,omitempty"`
	IPAddress *string    `json:"ip_address,omitempty"`
	Device    *string    `json:"device,omitempty"`
}

type Break struct {
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  int        `json:"duration"` // minutes
	Type      BreakType  `json:"type"`
	Notes     *string    `json:"notes,omitempty"`
}

// Active reports whether the break has not been ended yet.
func (b Break) Active() bool {
	return b.EndTime == nil
}

type Attendance struct {
	ID              string
	UserID          string
	Date            time.Time // calendar day, midnight
	ShiftID         *string
	CheckIn         CheckPoint
	CheckOut        CheckPoint
	Breaks          []Break
	WorkingMinutes  int
	OvertimeMinutes int
	IsLate          bool
	LateMinutes     int
	Status          Status
	Notes           *string
	ApprovedBy      *string
	ApprovedAt      *time.Time
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// DTO / Join
	UserName       *string
	EmployeeCode   *string
	UserDepartment *string
	ShiftName      *string
}

func (a *Attendance) HasCheckedIn() bool {
	return a.CheckIn.Time != nil
}

func (a *Attendance) HasCheckedOut() bool {
	return a.CheckOut.Time != nil
}

// ActiveBreak returns the break without an end time, if any.
func (a *Attendance) ActiveBreak() *Break {
	for i := range a.Breaks {
		if a.Breaks[i].Active() {
			return &a.Breaks[i]
		}
	}
	return nil
}

// WorkingHours is WorkingMinutes in hours, two decimals.
func (a *Attendance) WorkingHours() float64 {
	return roundHours(a.WorkingMinutes)
}

// FormattedWorkingHours renders WorkingMinutes as e.g. "7h 45m".
func (a *Attendance) FormattedWorkingHours() string {
	return fmt.Sprintf("%dh %dm", a.WorkingMinutes/60, a.WorkingMinutes%60)
}

func (a *Attendance) OvertimeHours() float64 {
	return roundHours(a.OvertimeMinutes)
}

func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}

// DateOnly truncates t to midnight of its calendar day in loc.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
