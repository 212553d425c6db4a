package resilience

import "time"

// Config configures the gating primitives.
type Config struct {
	Breaker BreakerConfig
	Limiter LimiterConfig
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures that open the circuit
	SuccessThreshold int           // half-open successes that close it again
	OpenTimeout      time.Duration // time spent open before probing
	MaxProbes        int           // concurrent half-open requests
}

// LimiterConfig configures the token bucket.
type LimiterConfig struct {
	Capacity          float64       // bucket size
	RefillRate        float64       // tokens per second
	DefaultRetryAfter time.Duration // block applied on 429
}

// DefaultConfig returns defaults suited to an interactive CLI.
func DefaultConfig() Config {
	return Config{
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			OpenTimeout:      30 * time.Second,
			MaxProbes:        1,
		},
		Limiter: LimiterConfig{
			Capacity:          20,
			RefillRate:        5,
			DefaultRetryAfter: 30 * time.Second,
		},
	}
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	d := DefaultConfig().Breaker
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = d.SuccessThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = d.OpenTimeout
	}
	if c.MaxProbes <= 0 {
		c.MaxProbes = d.MaxProbes
	}
	return c
}

func (c LimiterConfig) withDefaults() LimiterConfig {
	d := DefaultConfig().Limiter
	if c.Capacity <= 0 {
		c.Capacity = d.Capacity
	}
	if c.RefillRate <= 0 {
		c.RefillRate = d.RefillRate
	}
	if c.DefaultRetryAfter <= 0 {
		c.DefaultRetryAfter = d.DefaultRetryAfter
	}
	return c
}
