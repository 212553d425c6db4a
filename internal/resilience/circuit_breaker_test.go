package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func newBreaker(t *testing.T, cfg BreakerConfig) (*CircuitBreaker, *clock) {
	t.Helper()
	c := newClock()
	cb := NewCircuitBreaker(NewStore(t.TempDir()), cfg)
	cb.now = c.now
	return cb, c
}

func TestCircuitBreakerStartsClosed(t *testing.T) {
	cb, _ := newBreaker(t, BreakerConfig{})

	state, err := cb.State()
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, state)

	allowed, err := cb.Allow()
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb, _ := newBreaker(t, BreakerConfig{FailureThreshold: 3})

	for range 3 {
		require.NoError(t, cb.RecordFailure())
	}

	state, err := cb.State()
	require.NoError(t, err)
	assert.Equal(t, CircuitOpen, state)

	allowed, _ := cb.Allow()
	assert.False(t, allowed)
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb, _ := newBreaker(t, BreakerConfig{FailureThreshold: 3})

	require.NoError(t, cb.RecordFailure())
	require.NoError(t, cb.RecordFailure())
	require.NoError(t, cb.RecordSuccess())
	require.NoError(t, cb.RecordFailure())
	require.NoError(t, cb.RecordFailure())

	state, err := cb.State()
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, state)
}

func TestCircuitBreakerHalfOpenProbeAndRecovery(t *testing.T) {
	cb, clk := newBreaker(t, BreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Minute, MaxProbes: 1})

	require.NoError(t, cb.RecordFailure())
	clk.advance(time.Minute)

	state, _ := cb.State()
	assert.Equal(t, CircuitHalfOpen, state)

	allowed, _ := cb.Allow()
	assert.True(t, allowed, "first probe passes")
	allowed, _ = cb.Allow()
	assert.False(t, allowed, "second concurrent probe is rejected")

	require.NoError(t, cb.RecordSuccess())
	allowed, _ = cb.Allow()
	assert.True(t, allowed)
	require.NoError(t, cb.RecordSuccess())

	state, _ = cb.State()
	assert.Equal(t, CircuitClosed, state)
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clk := newBreaker(t, BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})

	require.NoError(t, cb.RecordFailure())
	clk.advance(time.Minute)
	allowed, _ := cb.Allow()
	require.True(t, allowed)

	require.NoError(t, cb.RecordFailure())

	allowed, _ = cb.Allow()
	assert.False(t, allowed)
}

func TestCircuitBreakerExpiresAbandonedProbes(t *testing.T) {
	cb, clk := newBreaker(t, BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute, MaxProbes: 1})

	require.NoError(t, cb.RecordFailure())
	clk.advance(time.Minute)
	allowed, _ := cb.Allow()
	require.True(t, allowed)

	clk.advance(time.Minute)
	allowed, _ = cb.Allow()
	assert.True(t, allowed, "probe held by a crashed process expires")
}

func TestCircuitBreakerSharedAcrossInstances(t *testing.T) {
	store := NewStore(t.TempDir())
	a := NewCircuitBreaker(store, BreakerConfig{FailureThreshold: 2})
	b := NewCircuitBreaker(store, BreakerConfig{FailureThreshold: 2})

	require.NoError(t, a.RecordFailure())
	require.NoError(t, b.RecordFailure())

	allowed, _ := a.Allow()
	assert.False(t, allowed)

	require.NoError(t, b.Reset())
	allowed, _ = a.Allow()
	assert.True(t, allowed)
}
