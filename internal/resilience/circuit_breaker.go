package resilience

import "time"

// CircuitBreaker opens after consecutive transport failures and lets a few
// probe requests through once OpenTimeout has passed. Errors reading the
// state file fail open.
type CircuitBreaker struct {
	cfg   BreakerConfig
	store *Store
	now   func() time.Time
}

// NewCircuitBreaker creates a breaker. Zero config fields take defaults.
func NewCircuitBreaker(store *Store, cfg BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg.withDefaults(), store: store, now: time.Now}
}

// Allow reports whether a request may proceed. In half-open state a probe
// slot is reserved and must be released by RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() (bool, error) {
	state, err := cb.store.Load()
	if err != nil {
		return true, nil
	}
	if state.Circuit.IsClosed() {
		return true, nil
	}
	now := cb.now()
	if state.Circuit.IsOpen() && now.Sub(state.Circuit.OpenedAt) < cb.cfg.OpenTimeout {
		return false, nil
	}

	allowed := false
	err = cb.store.Update(func(s *State) error {
		c := &s.Circuit
		switch {
		case c.IsClosed():
			allowed = true
		case c.IsOpen():
			if now.Sub(c.OpenedAt) < cb.cfg.OpenTimeout {
				return nil
			}
			c.State = CircuitHalfOpen
			c.Failures, c.Successes, c.Probes = 0, 0, 0
			fallthrough
		case c.IsHalfOpen():
			// Probes abandoned by crashed processes expire after OpenTimeout.
			if c.Probes >= cb.cfg.MaxProbes && !c.ProbeAt.IsZero() && now.Sub(c.ProbeAt) >= cb.cfg.OpenTimeout {
				c.Probes = 0
			}
			if c.Probes < cb.cfg.MaxProbes {
				c.Probes++
				c.ProbeAt = now
				allowed = true
			}
		}
		return nil
	})
	if err != nil {
		return true, nil
	}
	return allowed, nil
}

// RecordSuccess records a request that reached the server.
func (cb *CircuitBreaker) RecordSuccess() error {
	return cb.store.Update(func(s *State) error {
		c := &s.Circuit
		switch {
		case c.IsHalfOpen():
			if c.Probes > 0 {
				c.Probes--
			}
			c.Successes++
			if c.Successes >= cb.cfg.SuccessThreshold {
				*c = CircuitState{State: CircuitClosed}
			}
		case c.IsClosed():
			c.Failures = 0
		}
		return nil
	})
}

// RecordFailure records a transport failure.
func (cb *CircuitBreaker) RecordFailure() error {
	return cb.store.Update(func(s *State) error {
		c := &s.Circuit
		now := cb.now()
		switch {
		case c.IsClosed():
			c.Failures++
			if c.Failures >= cb.cfg.FailureThreshold {
				c.State = CircuitOpen
				c.OpenedAt = now
			}
		case c.IsHalfOpen():
			*c = CircuitState{State: CircuitOpen, OpenedAt: now}
		}
		return nil
	})
}

// State returns the effective circuit state. An open circuit whose timeout
// has passed reports half-open.
func (cb *CircuitBreaker) State() (string, error) {
	state, err := cb.store.Load()
	if err != nil {
		return CircuitClosed, err
	}
	c := state.Circuit
	if c.IsOpen() && cb.now().Sub(c.OpenedAt) >= cb.cfg.OpenTimeout {
		return CircuitHalfOpen, nil
	}
	if c.State == "" {
		return CircuitClosed, nil
	}
	return c.State, nil
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() error {
	return cb.store.Update(func(s *State) error {
		s.Circuit = CircuitState{State: CircuitClosed}
		return nil
	})
}
