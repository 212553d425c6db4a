package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, cfg LimiterConfig) (*RateLimiter, *clock) {
	t.Helper()
	c := newClock()
	rl := NewRateLimiter(NewStore(t.TempDir()), cfg)
	rl.now = c.now
	return rl, c
}

func TestRateLimiterStartsFull(t *testing.T) {
	rl, _ := newLimiter(t, LimiterConfig{Capacity: 3, RefillRate: 1})

	tokens, err := rl.Tokens()
	require.NoError(t, err)
	assert.InDelta(t, 3.0, tokens, 0.001)
}

func TestRateLimiterExhaustsAndRefills(t *testing.T) {
	rl, clk := newLimiter(t, LimiterConfig{Capacity: 2, RefillRate: 1})

	ok, _ := rl.Allow()
	assert.True(t, ok)
	ok, _ = rl.Allow()
	assert.True(t, ok)

	ok, wait := rl.Allow()
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	clk.advance(time.Second)
	ok, _ = rl.Allow()
	assert.True(t, ok)
}

func TestRateLimiterBlock(t *testing.T) {
	rl, clk := newLimiter(t, LimiterConfig{DefaultRetryAfter: 10 * time.Second})

	require.NoError(t, rl.Block(0))

	ok, wait := rl.Allow()
	assert.False(t, ok)
	assert.Equal(t, 10*time.Second, wait)

	require.NoError(t, rl.Block(time.Second), "shorter block does not shorten the window")
	clk.advance(5 * time.Second)
	ok, _ = rl.Allow()
	assert.False(t, ok)

	clk.advance(5 * time.Second)
	ok, _ = rl.Allow()
	assert.True(t, ok)
}

func TestRateLimiterReset(t *testing.T) {
	rl, _ := newLimiter(t, LimiterConfig{Capacity: 1, RefillRate: 0.001})

	ok, _ := rl.Allow()
	require.True(t, ok)
	require.NoError(t, rl.Block(time.Hour))

	require.NoError(t, rl.Reset())
	ok, _ = rl.Allow()
	assert.True(t, ok)
}
