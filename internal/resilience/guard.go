package resilience

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/oktotech/okto-go/internal/sdk"
	sdkerrors "github.com/oktotech/okto-go/internal/sdk/errors"
)

// Guard gates gateway requests through the rate limiter and circuit breaker.
// It satisfies api.Guard.
type Guard struct {
	breaker *CircuitBreaker
	limiter *RateLimiter
}

// NewGuard creates a guard from its primitives. Either may be nil.
func NewGuard(cb *CircuitBreaker, rl *RateLimiter) *Guard {
	return &Guard{breaker: cb, limiter: rl}
}

// NewGuardFromConfig creates a guard whose primitives share store.
func NewGuardFromConfig(store *Store, cfg Config) *Guard {
	return NewGuard(NewCircuitBreaker(store, cfg.Breaker), NewRateLimiter(store, cfg.Limiter))
}

// ErrCircuitOpen is returned while the circuit breaker rejects requests.
func ErrCircuitOpen() *sdkerrors.Error {
	return &sdkerrors.Error{
		Code:      sdkerrors.CodeTransport,
		Message:   "Okto API unavailable after repeated failures, try again shortly",
		Retryable: true,
	}
}

// ErrRateLimited is returned while the rate limiter rejects requests.
func ErrRateLimited(wait time.Duration) *sdkerrors.Error {
	return &sdkerrors.Error{
		Code:       sdkerrors.CodeTransport,
		Message:    fmt.Sprintf("Rate limited, retry in %s", wait.Round(time.Second)),
		HTTPStatus: http.StatusTooManyRequests,
		Retryable:  true,
	}
}

// Before checks the limiter first: the breaker reserves a half-open probe
// that must not leak when the limiter rejects.
func (g *Guard) Before(context.Context) error {
	if g.limiter != nil {
		if ok, wait := g.limiter.Allow(); !ok {
			return ErrRateLimited(wait)
		}
	}
	if g.breaker != nil {
		if ok, _ := g.breaker.Allow(); !ok {
			return ErrCircuitOpen()
		}
	}
	return nil
}

// After records the outcome of a request.
func (g *Guard) After(_ context.Context, result sdk.RequestResult) {
	if g.limiter != nil && result.StatusCode == http.StatusTooManyRequests {
		_ = g.limiter.Block(0)
	}
	if g.breaker == nil {
		return
	}
	if tripsCircuit(result) {
		_ = g.breaker.RecordFailure()
	} else {
		_ = g.breaker.RecordSuccess()
	}
}

// tripsCircuit reports failures that indicate the API itself is unhealthy:
// connection errors and 5xx. Client errors and error envelopes do not count.
func tripsCircuit(result sdk.RequestResult) bool {
	if result.Error == nil {
		return false
	}
	if result.StatusCode == 0 {
		return sdkerrors.IsTransport(result.Error)
	}
	return result.StatusCode >= 500
}
