package observability

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oktotech/okto-go/internal/sdk"
)

// sensitiveParams are query parameter names scrubbed from trace output.
var sensitiveParams = map[string]bool{
	"auth_token":    true,
	"refresh_token": true,
	"device_token":  true,
	"id_token":      true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"secret":        true,
}

// TraceWriter outputs human-readable trace information to stderr.
// Timestamps are relative to session start.
type TraceWriter struct {
	mu        sync.Mutex
	writer    io.Writer
	startTime time.Time
}

// NewTraceWriter creates a new TraceWriter that writes to stderr.
func NewTraceWriter() *TraceWriter {
	return NewTraceWriterTo(os.Stderr)
}

// NewTraceWriterTo creates a new TraceWriter that writes to the given writer.
func NewTraceWriterTo(w io.Writer) *TraceWriter {
	return &TraceWriter{
		writer:    w,
		startTime: time.Now(),
	}
}

func (t *TraceWriter) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := time.Since(t.startTime).Seconds()
	fmt.Fprintf(t.writer, "[%.3fs] "+format+"\n", append([]any{elapsed}, args...)...)
}

// WriteOperationStart writes: [0.234s] Calling Okto.GetPortfolio
func (t *TraceWriter) WriteOperationStart(op sdk.OperationInfo) {
	t.printf("Calling %s.%s", op.Service, op.Operation)
}

// WriteOperationEnd writes: [0.234s] Completed Okto.GetPortfolio (234ms)
func (t *TraceWriter) WriteOperationEnd(op sdk.OperationInfo, err error, duration time.Duration) {
	if err != nil {
		t.printf("Failed %s.%s: %v", op.Service, op.Operation, err)
		return
	}
	t.printf("Completed %s.%s (%dms)", op.Service, op.Operation, duration.Milliseconds())
}

// WriteRequestStart writes: [0.234s]   -> GET /api/v1/orders [1a2b3c4d]
// Sensitive query parameters are redacted.
func (t *TraceWriter) WriteRequestStart(info sdk.RequestInfo) {
	t.printf("  -> %s %s [%s]", info.Method, scrubURL(info.URL), shortID(info.ID))
}

// WriteRequestEnd writes: [0.234s]   <- 200 (45ms)
func (t *TraceWriter) WriteRequestEnd(_ sdk.RequestInfo, result sdk.RequestResult) {
	if result.Error != nil {
		t.printf("  <- ERROR: %v", result.Error)
		return
	}
	t.printf("  <- %d (%dms)", result.StatusCode, result.Duration.Milliseconds())
}

// WriteRetry writes: [0.234s]   RETRY #2 [1a2b3c4d]: Unauthorized
func (t *TraceWriter) WriteRetry(info sdk.RequestInfo, attempt int, err error) {
	t.printf("  RETRY #%d [%s]: %v", attempt, shortID(info.ID), err)
}

// WriteRefresh writes: [0.234s] Refreshed session (120ms)
func (t *TraceWriter) WriteRefresh(err error, duration time.Duration) {
	if err != nil {
		t.printf("Refresh failed: %v", err)
		return
	}
	t.printf("Refreshed session (%dms)", duration.Milliseconds())
}

// WritePoll writes: [0.234s] Poll ord-1 2/12: not ready
func (t *TraceWriter) WritePoll(info sdk.PollInfo, err error) {
	if err != nil {
		t.printf("Poll %s %d/%d: %v", info.JobID, info.Attempt, info.MaxAttempts, err)
		return
	}
	t.printf("Poll %s %d/%d: done", info.JobID, info.Attempt, info.MaxAttempts)
}

// Reset resets the start time for relative timestamps.
func (t *TraceWriter) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startTime = time.Now()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// scrubURL redacts sensitive query parameters from a URL for safe logging.
func scrubURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "[unparseable URL]"
	}

	query := u.Query()
	modified := false
	for key := range query {
		if sensitiveParams[strings.ToLower(key)] {
			query.Set(key, "[REDACTED]")
			modified = true
		}
	}

	if !modified {
		return rawURL
	}

	u.RawQuery = query.Encode()
	return u.String()
}
