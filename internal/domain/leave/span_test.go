package leave

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeLeaveSpan(t *testing.T) {
	t.Run("inclusive range", func(t *testing.T) {
		days, err := ComputeLeaveSpan(date("2025-08-10"), date("2025-08-12"), false, "")
		require.NoError(t, err)
		assert.Equal(t, 3.0, days)
	})

	t.Run("half day over several days fails validation", func(t *testing.T) {
		_, err := ComputeLeaveSpan(date("2025-08-10"), date("2025-08-12"), true, PeriodMorning)
		assert.ErrorIs(t, err, ErrHalfDaySpan)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("same day is one day", func(t *testing.T) {
		days, err := ComputeLeaveSpan(date("2025-08-10"), date("2025-08-10"), false, "")
		require.NoError(t, err)
		assert.Equal(t, 1.0, days)
	})

	t.Run("same day half day", func(t *testing.T) {
		days, err := ComputeLeaveSpan(date("2025-08-10"), date("2025-08-10"), true, PeriodAfternoon)
		require.NoError(t, err)
		assert.Equal(t, 0.5, days)
	})

	t.Run("half day needs a period", func(t *testing.T) {
		_, err := ComputeLeaveSpan(date("2025-08-10"), date("2025-08-10"), true, "")
		assert.ErrorIs(t, err, ErrHalfDayPeriodRequired)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := ComputeLeaveSpan(date("2025-08-12"), date("2025-08-10"), false, "")
		assert.ErrorIs(t, err, ErrInvalidDateRange)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		start := time.Date(2025, 8, 10, 18, 0, 0, 0, time.UTC)
		end := time.Date(2025, 8, 11, 8, 0, 0, 0, time.UTC)
		days, err := ComputeLeaveSpan(start, end, false, "")
		require.NoError(t, err)
		assert.Equal(t, 2.0, days)

		days, err = ComputeLeaveSpan(end, end.Add(-time.Hour), false, "")
		require.NoError(t, err)
		assert.Equal(t, 1.0, days)
	})

	t.Run("crosses month and leap day", func(t *testing.T) {
		days, err := ComputeLeaveSpan(date("2024-02-27"), date("2024-03-02"), false, "")
		require.NoError(t, err)
		assert.Equal(t, 5.0, days)
	})
}

func TestClampLeaveToRange(t *testing.T) {
	august := [2]time.Time{date("2025-08-01"), date("2025-08-31")}

	tests := []struct {
		name  string
		leave Leave
		want  float64
	}{
		{
			name:  "fully contained",
			leave: Leave{StartDate: date("2025-08-10"), EndDate: date("2025-08-12")},
			want:  3,
		},
		{
			name:  "entirely before",
			leave: Leave{StartDate: date("2025-07-01"), EndDate: date("2025-07-31")},
			want:  0,
		},
		{
			name:  "entirely after",
			leave: Leave{StartDate: date("2025-09-01"), EndDate: date("2025-09-03")},
			want:  0,
		},
		{
			name:  "starts before range",
			leave: Leave{StartDate: date("2025-07-30"), EndDate: date("2025-08-02")},
			want:  2,
		},
		{
			name:  "ends after range",
			leave: Leave{StartDate: date("2025-08-30"), EndDate: date("2025-09-04")},
			want:  2,
		},
		{
			name:  "covers whole range",
			leave: Leave{StartDate: date("2025-07-15"), EndDate: date("2025-09-15")},
			want:  31,
		},
		{
			name:  "half day inside",
			leave: Leave{StartDate: date("2025-08-05"), EndDate: date("2025-08-05"), IsHalfDay: true, TotalDays: 0.5},
			want:  0.5,
		},
		{
			name:  "half day outside",
			leave: Leave{StartDate: date("2025-09-05"), EndDate: date("2025-09-05"), IsHalfDay: true, TotalDays: 0.5},
			want:  0,
		},
		{
			name:  "touches last day",
			leave: Leave{StartDate: date("2025-08-31"), EndDate: date("2025-09-02")},
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampLeaveToRange(tt.leave, august[0], august[1]))
		})
	}
}

func TestClampLeaveToRange_ContainedEqualsSpan(t *testing.T) {
	from, to := date("2025-01-01"), date("2025-12-31")
	for start := date("2025-03-01"); start.Before(date("2025-03-20")); start = start.AddDate(0, 0, 3) {
		end := start.AddDate(0, 0, 4)
		days, err := ComputeLeaveSpan(start, end, false, "")
		require.NoError(t, err)

		assert.Equal(t, days, ClampLeaveToRange(Leave{StartDate: start, EndDate: end}, from, to))
	}
}

func TestLeaveDuration(t *testing.T) {
	morning := PeriodMorning
	assert.Equal(t, "Half day (morning)", Leave{TotalDays: 0.5, HalfDayPeriod: &morning}.Duration())
	assert.Equal(t, "1 day", Leave{TotalDays: 1}.Duration())
	assert.Equal(t, "3 days", Leave{TotalDays: 3}.Duration())
}
