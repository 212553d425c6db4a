package resilience

import "time"

// StateVersion is the current state schema version.
const StateVersion = 1

// State is the gating state shared across processes.
type State struct {
	Version   int          `json:"version"`
	Circuit   CircuitState `json:"circuit"`
	Limiter   LimiterState `json:"limiter"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Circuit states.
const (
	CircuitClosed   = "closed"
	CircuitOpen     = "open"
	CircuitHalfOpen = "half_open"
)

// CircuitState tracks consecutive outcomes of gateway requests.
type CircuitState struct {
	State     string    `json:"state"`
	Failures  int       `json:"failures"`
	Successes int       `json:"successes"`
	Probes    int       `json:"probes,omitempty"` // in-flight half-open requests
	ProbeAt   time.Time `json:"probe_at"`
	OpenedAt  time.Time `json:"opened_at"`
}

// IsClosed reports whether requests flow normally. An empty state is closed.
func (c *CircuitState) IsClosed() bool { return c.State == "" || c.State == CircuitClosed }

// IsOpen reports whether requests are rejected.
func (c *CircuitState) IsOpen() bool { return c.State == CircuitOpen }

// IsHalfOpen reports whether a limited number of probe requests may pass.
func (c *CircuitState) IsHalfOpen() bool { return c.State == CircuitHalfOpen }

// LimiterState is a token bucket plus an optional server-imposed block.
type LimiterState struct {
	Tokens       float64   `json:"tokens"`
	RefilledAt   time.Time `json:"refilled_at"`
	BlockedUntil time.Time `json:"blocked_until"`
}

// BlockedFor returns the remaining server-imposed wait, or zero.
func (l *LimiterState) BlockedFor(now time.Time) time.Duration {
	if l.BlockedUntil.IsZero() || !now.Before(l.BlockedUntil) {
		return 0
	}
	return l.BlockedUntil.Sub(now)
}

// NewState returns a closed circuit and an uninitialised bucket. The bucket
// fills to capacity on first use.
func NewState() *State {
	return &State{
		Version: StateVersion,
		Circuit: CircuitState{State: CircuitClosed},
	}
}
