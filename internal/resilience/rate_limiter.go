package resilience

import "time"

// RateLimiter is a token bucket shared across processes, with an extra
// block window set when the server answers 429. Errors updating the state
// file fail open.
type RateLimiter struct {
	cfg   LimiterConfig
	store *Store
	now   func() time.Time
}

// NewRateLimiter creates a limiter. Zero config fields take defaults.
func NewRateLimiter(store *Store, cfg LimiterConfig) *RateLimiter {
	return &RateLimiter{cfg: cfg.withDefaults(), store: store, now: time.Now}
}

func (rl *RateLimiter) refill(l *LimiterState, now time.Time) {
	if l.RefilledAt.IsZero() {
		l.Tokens = rl.cfg.Capacity
		l.RefilledAt = now
		return
	}
	l.Tokens += now.Sub(l.RefilledAt).Seconds() * rl.cfg.RefillRate
	if l.Tokens > rl.cfg.Capacity {
		l.Tokens = rl.cfg.Capacity
	}
	l.RefilledAt = now
}

// Allow consumes one token. It reports false while blocked or when the
// bucket is empty, along with the time until a retry could succeed.
func (rl *RateLimiter) Allow() (bool, time.Duration) {
	allowed := false
	var wait time.Duration
	err := rl.store.Update(func(s *State) error {
		now := rl.now()
		if wait = s.Limiter.BlockedFor(now); wait > 0 {
			return nil
		}
		rl.refill(&s.Limiter, now)
		if s.Limiter.Tokens >= 1 {
			s.Limiter.Tokens--
			allowed = true
			return nil
		}
		wait = time.Duration((1 - s.Limiter.Tokens) / rl.cfg.RefillRate * float64(time.Second))
		return nil
	})
	if err != nil {
		return true, 0
	}
	return allowed, wait
}

// Block rejects requests for d, keeping any longer block already in place.
func (rl *RateLimiter) Block(d time.Duration) error {
	if d <= 0 {
		d = rl.cfg.DefaultRetryAfter
	}
	until := rl.now().Add(d)
	return rl.store.Update(func(s *State) error {
		if until.After(s.Limiter.BlockedUntil) {
			s.Limiter.BlockedUntil = until
		}
		return nil
	})
}

// Tokens returns the tokens currently available.
func (rl *RateLimiter) Tokens() (float64, error) {
	var tokens float64
	err := rl.store.Update(func(s *State) error {
		rl.refill(&s.Limiter, rl.now())
		tokens = s.Limiter.Tokens
		return nil
	})
	return tokens, err
}

// Reset refills the bucket and lifts any block.
func (rl *RateLimiter) Reset() error {
	return rl.store.Update(func(s *State) error {
		s.Limiter = LimiterState{Tokens: rl.cfg.Capacity, RefilledAt: rl.now()}
		return nil
	})
}
