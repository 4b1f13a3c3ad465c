package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	b := NewBreaker("test", 3, time.Minute)
	b.nowFn = func() time.Time { return now }

	t.Run("closed until the threshold", func(t *testing.T) {
		assert.True(t, b.Allow())
		b.RecordFailure()
		b.RecordFailure()
		assert.True(t, b.Allow())
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("opens at the threshold", func(t *testing.T) {
		b.RecordFailure()
		assert.Equal(t, StateOpen, b.State())
		assert.False(t, b.Allow())
	})

	t.Run("probes half-open after the cooldown", func(t *testing.T) {
		now = now.Add(61 * time.Second)
		assert.True(t, b.Allow())
		assert.Equal(t, StateHalfOpen, b.State())
	})

	t.Run("probe failure reopens", func(t *testing.T) {
		b.RecordFailure()
		assert.Equal(t, StateOpen, b.State())
		assert.False(t, b.Allow())
	})

	t.Run("probe success closes and resets", func(t *testing.T) {
		now = now.Add(61 * time.Second)
		assert.True(t, b.Allow())
		b.RecordSuccess()
		assert.Equal(t, StateClosed, b.State())
		assert.True(t, b.Allow())
	})
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 2, time.Minute)
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	// One failure after a success: still below the threshold.
	assert.Equal(t, StateClosed, b.State())
}
