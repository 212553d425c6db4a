// Package jobs waits for asynchronous Okto orders and transactions to reach
// a terminal state by polling a lookup function on a fixed interval.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oktotech/okto-go/internal/sdk"
	sdkerrors "github.com/oktotech/okto-go/internal/sdk/errors"
)

// ErrNotReady is returned by lookups when the job is missing or not terminal.
var ErrNotReady = errors.New("job not ready")

// NotReady wraps ErrNotReady with detail about what the lookup saw.
func NotReady(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotReady, fmt.Sprintf(format, args...))
}

// Default polling budget: 12 lookups 5 seconds apart.
const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 12
)

// Poller retries a lookup on a fixed interval up to MaxAttempts times.
// Worst-case wait is (MaxAttempts-1) * Interval plus lookup latency.
type Poller struct {
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger
	hooks       sdk.Hooks
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the poller logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithHooks reports each lookup to h.
func WithHooks(h sdk.Hooks) Option {
	return func(p *Poller) {
		if h != nil {
			p.hooks = h
		}
	}
}

// New creates a poller. Non-positive values fall back to the defaults.
func New(interval time.Duration, maxAttempts int, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	p := &Poller{
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      slog.New(slog.DiscardHandler),
		hooks:       sdk.NoopHooks{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the delay between lookups.
func (p *Poller) Interval() time.Duration { return p.interval }

// MaxAttempts returns the lookup budget.
func (p *Poller) MaxAttempts() int { return p.maxAttempts }

// Lookup resolves a job id to its terminal record, or fails when the job is
// not yet terminal.
type Lookup[T any] func(ctx context.Context, jobID string) (T, error)

// WaitFor calls lookup until it succeeds, the budget runs out or ctx ends.
// Lookup failures are retried, except authentication and refresh failures
// which no amount of waiting can fix. Exhausting the budget returns a job
// timeout error wrapping the last lookup failure.
func WaitFor[T any](ctx context.Context, p *Poller, jobID string, lookup Lookup[T]) (T, error) {
	var zero T
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		v, err := lookup(ctx, jobID)
		p.hooks.OnPoll(ctx, sdk.PollInfo{JobID: jobID, Attempt: attempt, MaxAttempts: p.maxAttempts}, err)
		if err == nil {
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		if sdkerrors.IsAuth(err) || sdkerrors.IsRefresh(err) {
			return zero, err
		}
		lastErr = err

		if attempt == p.maxAttempts {
			break
		}
		p.logger.Debug("waiting for job completion",
			"job_id", jobID, "attempt", attempt, "max_attempts", p.maxAttempts, "reason", err)

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, sdkerrors.ErrJobTimeout(jobID, time.Since(start), lastErr)
}
