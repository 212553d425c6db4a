// Package observability provides metrics collection and tracing for SDK calls.
package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/oktotech/okto-go/internal/sdk"
)

// RequestMetrics holds timing and status information for a single HTTP request.
type RequestMetrics struct {
	ID         string
	Method     string
	URL        string
	Attempt    int
	StatusCode int
	Duration   time.Duration
	Retryable  bool
	Error      error
}

// OperationMetrics holds timing information for a facade operation.
type OperationMetrics struct {
	Service    string // "Okto"
	Operation  string // e.g. "GetPortfolio", "TransferTokens"
	IsMutation bool
	Duration   time.Duration
	Error      error
}

// SessionMetrics aggregates metrics for one process.
type SessionMetrics struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalRequests   int
	FailedRequests  int
	TotalOperations int
	FailedOps       int
	TotalRetries    int
	Refreshes       int
	FailedRefreshes int
	Polls           int
	TotalLatency    time.Duration
}

// SessionCollector accumulates metrics across a session.
// It is safe for concurrent use and keeps counters, not per-call records.
type SessionCollector struct {
	mu sync.Mutex

	startTime       time.Time
	totalRequests   int
	failedRequests  int
	totalOperations int
	failedOps       int
	totalRetries    int
	refreshes       int
	failedRefreshes int
	polls           int
	totalLatency    time.Duration
}

// NewSessionCollector creates a new SessionCollector.
func NewSessionCollector() *SessionCollector {
	return &SessionCollector{
		startTime: time.Now(),
	}
}

// RecordRequest records metrics for an HTTP request.
func (c *SessionCollector) RecordRequest(m RequestMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	c.totalLatency += m.Duration
	if m.Error != nil {
		c.failedRequests++
	}
}

// RecordRequestFromSDK records metrics from gateway hook types.
func (c *SessionCollector) RecordRequestFromSDK(info sdk.RequestInfo, result sdk.RequestResult) {
	c.RecordRequest(RequestMetrics{
		ID:         info.ID,
		Method:     info.Method,
		URL:        info.URL,
		Attempt:    info.Attempt,
		StatusCode: result.StatusCode,
		Duration:   result.Duration,
		Retryable:  result.Retryable,
		Error:      result.Error,
	})
}

// RecordOperation records metrics for a facade operation.
func (c *SessionCollector) RecordOperation(m OperationMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalOperations++
	if m.Error != nil {
		c.failedOps++
	}
}

// RecordOperationFromSDK records metrics from hook types.
func (c *SessionCollector) RecordOperationFromSDK(op sdk.OperationInfo, err error, duration time.Duration) {
	c.RecordOperation(OperationMetrics{
		Service:    op.Service,
		Operation:  op.Operation,
		IsMutation: op.IsMutation,
		Duration:   duration,
		Error:      err,
	})
}

// RecordRetry records a retry after token refresh.
func (c *SessionCollector) RecordRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRetries++
}

// RecordRefresh records one network refresh of the session credential.
func (c *SessionCollector) RecordRefresh(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshes++
	if err != nil {
		c.failedRefreshes++
	}
}

// RecordPoll records one job status lookup.
func (c *SessionCollector) RecordPoll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++
}

// Summary returns aggregated metrics for the session.
func (c *SessionCollector) Summary() SessionMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	return SessionMetrics{
		StartTime:       c.startTime,
		EndTime:         time.Now(),
		TotalRequests:   c.totalRequests,
		FailedRequests:  c.failedRequests,
		TotalOperations: c.totalOperations,
		FailedOps:       c.failedOps,
		TotalRetries:    c.totalRetries,
		Refreshes:       c.refreshes,
		FailedRefreshes: c.failedRefreshes,
		Polls:           c.polls,
		TotalLatency:    c.totalLatency,
	}
}

// Reset clears all collected metrics and resets the start time.
func (c *SessionCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.totalRequests = 0
	c.failedRequests = 0
	c.totalOperations = 0
	c.failedOps = 0
	c.totalRetries = 0
	c.refreshes = 0
	c.failedRefreshes = 0
	c.polls = 0
	c.totalLatency = 0
}

// FormatParts returns the compact pieces of a one-line stats summary.
func (m SessionMetrics) FormatParts() []string {
	var parts []string

	duration := m.EndTime.Sub(m.StartTime)
	if duration < time.Second {
		parts = append(parts, fmt.Sprintf("%dms", duration.Milliseconds()))
	} else {
		parts = append(parts, fmt.Sprintf("%.1fs", duration.Seconds()))
	}

	parts = appendCount(parts, m.TotalRequests, "request", "requests")
	parts = appendCount(parts, m.TotalRetries, "retry", "retries")
	parts = appendCount(parts, m.Refreshes, "refresh", "refreshes")
	parts = appendCount(parts, m.Polls, "poll", "polls")
	if failed := m.FailedRequests + m.FailedOps; failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	return parts
}

func appendCount(parts []string, n int, one, many string) []string {
	switch {
	case n == 1:
		return append(parts, "1 "+one)
	case n > 1:
		return append(parts, fmt.Sprintf("%d %s", n, many))
	}
	return parts
}
