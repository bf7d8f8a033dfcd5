package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("chan-a", 3, time.Minute)

	assert.True(t, b.Allow())
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("chan-a", 2, time.Minute)

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	current := time.Unix(1000, 0)
	b := New("chan-a", 1, time.Minute)
	b.now = func() time.Time { return current }

	b.RecordFailure()
	assert.False(t, b.Allow())

	// Cooldown elapsed: exactly one probe is let through.
	current = current.Add(2 * time.Minute)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
	assert.False(t, b.Allow())

	// Successful probe closes the breaker.
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	current := time.Unix(1000, 0)
	b := New("chan-a", 1, time.Minute)
	b.now = func() time.Time { return current }

	b.RecordFailure()
	current = current.Add(2 * time.Minute)
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestOpenError(t *testing.T) {
	err := &OpenError{Name: "chan-a"}
	assert.Contains(t, err.Error(), "chan-a")
	assert.Contains(t, err.Error(), "open")
}
