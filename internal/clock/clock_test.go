package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landrent-backend/internal/domain"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewManualClock(start)
	assert.Equal(t, start, c.Now())

	require.NoError(t, c.Advance(36*time.Hour))
	assert.Equal(t, start.Add(36*time.Hour), c.Now())

	assert.ErrorIs(t, c.Advance(-time.Second), domain.ErrClockRegression)
	assert.ErrorIs(t, c.Set(start), domain.ErrClockRegression)
	assert.Equal(t, start.Add(36*time.Hour), c.Now())

	require.NoError(t, c.Set(start.Add(72*time.Hour)))
	assert.Equal(t, start.Add(72*time.Hour), c.Now())
}

func TestSystemClock_Monotonic(t *testing.T) {
	c := NewSystemClock()
	prev := c.Now()
	for i := 0; i < 1000; i++ {
		now := c.Now()
		assert.False(t, now.Before(prev))
		prev = now
	}
}
