package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateHaversineDistance(t *testing.T) {
	assert.InDelta(t, 0, CalculateHaversineDistance(-6.2, 106.8, -6.2, 106.8), 0.001)

	// One degree of latitude is roughly 111.2 km.
	assert.InDelta(t, 111195, CalculateHaversineDistance(0, 0, 1, 0), 50)

	// Jakarta (Monas) to Bandung (Gedung Sate) is about 119 km.
	d := CalculateHaversineDistance(-6.1754, 106.8272, -6.9025, 107.6188)
	assert.InDelta(t, 119100, d, 1000)
}

func TestWithinRadius(t *testing.T) {
	assert.True(t, WithinRadius(-6.2001, 106.8, -6.2, 106.8, 50))
	assert.False(t, WithinRadius(-6.21, 106.8, -6.2, 106.8, 200))
}
