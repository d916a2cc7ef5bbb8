package shift

import (
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

const (
	DefaultBreakDurationMinutes     = 60
	DefaultLateThresholdMinutes     = 15
	DefaultOvertimeThresholdMinutes = 480
	DefaultColor                    = "#3498db"
)

var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type Shift struct {
	ID                       string
	Name                     string
	Description              *string
	StartTime                string // HH:MM
	EndTime                  string // HH:MM
	WorkingDays              []string
	BreakDurationMinutes     int
	LateThresholdMinutes     int
	OvertimeThresholdMinutes int
	IsActive                 bool
	Color                    string
	CreatedAt                time.Time
	UpdatedAt                time.Time

	// DTO / Join
	AssignedUsers *int
}

// IsOvernight reports whether the shift ends on the calendar day after it starts.
func (s Shift) IsOvernight() bool {
	start, _ := validator.ParseClock(s.StartTime)
	end, _ := validator.ParseClock(s.EndTime)
	return end < start
}

// TotalHours is the scheduled span minus the break, rounded to two decimals.
func (s Shift) TotalHours() float64 {
	start, _ := validator.ParseClock(s.StartTime)
	end, _ := validator.ParseClock(s.EndTime)
	if end < start {
		end += 24 * 60
	}
	total := float64(end-start-s.BreakDurationMinutes) / 60
	return math.Round(total*100) / 100
}

// OvertimeThreshold falls back to the 8h default for shifts persisted without one.
func (s Shift) OvertimeThreshold() int {
	if s.OvertimeThresholdMinutes <= 0 {
		return DefaultOvertimeThresholdMinutes
	}
	return s.OvertimeThresholdMinutes
}

// WorksOn reports whether the weekday is one of the shift's working days.
func (s Shift) WorksOn(day time.Weekday) bool {
	name := Weekdays[(int(day)+6)%7]
	return validator.IsInSlice(name, s.WorkingDays)
}

// StartOn returns the shift start on the given calendar date in loc.
func (s Shift) StartOn(date time.Time, loc *time.Location) time.Time {
	return combine(date, s.StartTime, loc)
}

// StartFor returns the start of the shift occurrence that a check-in at now,
// recorded on date, belongs to. A check-in in the after-midnight tail of an
// overnight shift belongs to the occurrence that started the previous day.
func (s Shift) StartFor(date, now time.Time) time.Time {
	loc := now.Location()
	start := combine(date, s.StartTime, loc)
	if s.IsOvernight() && now.Before(combine(date, s.EndTime, loc)) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

// EndOn returns the shift end for the occurrence starting on date.
func (s Shift) EndOn(date time.Time, loc *time.Location) time.Time {
	end := combine(date, s.EndTime, loc)
	if s.IsOvernight() {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

func combine(date time.Time, clock string, loc *time.Location) time.Time {
	minutes, _ := validator.ParseClock(clock)
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, loc)
}
