package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/shift"
)

// The functions below derive every computed field of an attendance day.
// They perform no I/O and never read the clock; callers pass now.

// RecordCheckIn stamps the check-in and derives lateness against the shift.
func RecordCheckIn(day *Attendance, now time.Time, s shift.Shift) error {
	if day.HasCheckedIn() {
		return ErrAlreadyCheckedIn
	}

	checkIn := now
	day.CheckIn.Time = &checkIn
	deriveLateness(day, s)
	return nil
}

// RecordCheckOut stamps the check-out and recomputes working time.
func RecordCheckOut(day *Attendance, now time.Time, s shift.Shift) error {
	if !day.HasCheckedIn() {
		return ErrNotCheckedIn
	}
	if day.HasCheckedOut() {
		return ErrAlreadyCheckedOut
	}

	checkOut := now
	day.CheckOut.Time = &checkOut
	RecomputeWorkingTime(day, s)
	return nil
}

// RecomputeWorkingTime derives working and overtime minutes. Both stay zero
// until the day has a check-in and a check-out. Breaks that have not ended
// are not subtracted. The net duration is truncated to whole minutes once,
// after the breaks are taken off.
func RecomputeWorkingTime(day *Attendance, s shift.Shift) {
	day.WorkingMinutes = 0
	day.OvertimeMinutes = 0
	if !day.HasCheckedIn() || !day.HasCheckedOut() {
		return
	}

	net := day.CheckOut.Time.Sub(*day.CheckIn.Time)
	for _, b := range day.Breaks {
		if b.EndTime == nil {
			continue
		}
		net -= b.EndTime.Sub(b.StartTime)
	}

	day.WorkingMinutes = max(0, int(net/time.Minute))
	day.OvertimeMinutes = max(0, day.WorkingMinutes-s.OvertimeThreshold())
}

// StartBreak opens a new break. At most one break may be open at a time.
func StartBreak(day *Attendance, now time.Time, t BreakType, notes string) (Break, error) {
	if !day.HasCheckedIn() {
		return Break{}, ErrCheckInRequired
	}
	if day.ActiveBreak() != nil {
		return Break{}, ErrActiveBreakExists
	}
	if t == "" {
		t = BreakOther
	}

	b := Break{StartTime: now, Type: t}
	if notes = strings.TrimSpace(notes); notes != "" {
		b.Notes = &notes
	}
	day.Breaks = append(day.Breaks, b)
	return b, nil
}

// EndBreak closes the open break and recomputes working time.
func EndBreak(day *Attendance, now time.Time, s shift.Shift) (Break, error) {
	active := day.ActiveBreak()
	if active == nil {
		return Break{}, ErrNoActiveBreak
	}

	end := now
	active.EndTime = &end
	active.Duration = minutesBetween(active.StartTime, end)
	RecomputeWorkingTime(day, s)
	return *active, nil
}

// ApplyCorrection re-derives lateness and working time after the check-in or
// check-out time was edited by a reviewer. The reviewer's explicit status, if
// any, is applied by the caller afterwards.
func ApplyCorrection(day *Attendance, s shift.Shift) {
	if day.HasCheckedIn() {
		deriveLateness(day, s)
	}
	RecomputeWorkingTime(day, s)
}

func deriveLateness(day *Attendance, s shift.Shift) {
	checkIn := *day.CheckIn.Time
	deadline := s.StartFor(day.Date, checkIn).Add(time.Duration(s.LateThresholdMinutes) * time.Minute)

	if checkIn.After(deadline) {
		day.IsLate = true
		day.LateMinutes = minutesBetween(deadline, checkIn)
		day.Status = StatusLate
		return
	}
	day.IsLate = false
	day.LateMinutes = 0
	day.Status = StatusPresent
}

// minutesBetween returns whole elapsed minutes, truncated.
func minutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}
