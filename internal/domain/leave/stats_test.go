package leave

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyByStatus(t *testing.T) {
	leaves := []Leave{
		{StartDate: date("2025-04-02"), Status: StatusApproved, TotalDays: 3},
		{StartDate: date("2025-03-10"), Status: StatusPending, TotalDays: 1},
		{StartDate: date("2025-03-03"), Status: StatusApproved, TotalDays: 0.5},
		{StartDate: date("2025-03-20"), Status: StatusApproved, TotalDays: 2},
	}

	assert.Equal(t, []MonthStatusStat{
		{Month: 3, Status: "approved", Count: 2, TotalDays: 2.5},
		{Month: 3, Status: "pending", Count: 1, TotalDays: 1},
		{Month: 4, Status: "approved", Count: 1, TotalDays: 3},
	}, MonthlyByStatus(leaves))
	assert.Empty(t, MonthlyByStatus(nil))
}

func TestStartingIn(t *testing.T) {
	leaves := []Leave{
		{ID: "a", StartDate: date("2024-12-30"), EndDate: date("2025-01-02")},
		{ID: "b", StartDate: date("2025-06-01"), EndDate: date("2025-06-01")},
	}

	got := StartingIn(leaves, 2025)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "b", got[0].ID)
	}
}
