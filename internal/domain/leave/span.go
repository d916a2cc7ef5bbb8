package leave

import "time"

// ComputeLeaveSpan returns the number of leave days for an inclusive date
// range. Time of day is ignored. A half-day request must cover exactly one
// calendar day and counts as 0.5.
func ComputeLeaveSpan(start, end time.Time, isHalfDay bool, period HalfDayPeriod) (float64, error) {
	days := calendarDays(start, end) + 1
	if days < 1 {
		return 0, ErrInvalidDateRange
	}
	if !isHalfDay {
		return float64(days), nil
	}
	if days != 1 {
		return 0, ErrHalfDaySpan
	}
	if period != PeriodMorning && period != PeriodAfternoon {
		return 0, ErrHalfDayPeriodRequired
	}
	return 0.5, nil
}

// ClampLeaveToRange returns how many of the leave's days fall inside the
// inclusive range [from, to]. A half-day leave counts 0.5 when it overlaps.
func ClampLeaveToRange(l Leave, from, to time.Time) float64 {
	start := l.StartDate
	if calendarDays(start, from) > 0 {
		start = from
	}
	end := l.EndDate
	if calendarDays(to, end) > 0 {
		end = to
	}

	overlap := calendarDays(start, end) + 1
	if overlap <= 0 {
		return 0
	}
	if l.IsHalfDay {
		return 0.5
	}
	return float64(overlap)
}

// calendarDays counts whole days from a's date to b's date, negative when b
// is earlier.
func calendarDays(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
