package observability

import (
	"context"
	"sync"
	"time"

	"github.com/oktotech/okto-go/internal/sdk"
)

var _ sdk.Hooks = (*CLIHooks)(nil)

// CLIHooks implements sdk.Hooks for CLI observability.
// Verbosity levels:
//   - 0: Silent (collect stats only, no output)
//   - 1: Operations, refreshes and job polls
//   - 2: Level 1 plus individual HTTP requests
type CLIHooks struct {
	mu        sync.Mutex
	level     int
	collector *SessionCollector
	writer    *TraceWriter
}

// NewCLIHooks creates a new CLIHooks with the given verbosity level.
// If collector is nil, metrics are not collected.
// If writer is nil, no trace output is produced.
func NewCLIHooks(level int, collector *SessionCollector, writer *TraceWriter) *CLIHooks {
	return &CLIHooks{
		level:     level,
		collector: collector,
		writer:    writer,
	}
}

// SetLevel changes the verbosity level at runtime.
func (h *CLIHooks) SetLevel(level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.level = level
}

// Level returns the current verbosity level.
func (h *CLIHooks) Level() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level
}

func (h *CLIHooks) snapshot() (int, *SessionCollector, *TraceWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level, h.collector, h.writer
}

// OnOperationStart is called when a facade operation begins.
func (h *CLIHooks) OnOperationStart(ctx context.Context, op sdk.OperationInfo) context.Context {
	level, _, writer := h.snapshot()
	if level >= 1 && writer != nil {
		writer.WriteOperationStart(op)
	}
	return ctx
}

// OnOperationEnd is called when a facade operation completes.
func (h *CLIHooks) OnOperationEnd(ctx context.Context, op sdk.OperationInfo, err error, duration time.Duration) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordOperationFromSDK(op, err, duration)
	}
	if level >= 1 && writer != nil {
		writer.WriteOperationEnd(op, err, duration)
	}
}

// OnRequestStart is called before an HTTP request is sent.
func (h *CLIHooks) OnRequestStart(ctx context.Context, info sdk.RequestInfo) context.Context {
	level, _, writer := h.snapshot()
	if level >= 2 && writer != nil {
		writer.WriteRequestStart(info)
	}
	return ctx
}

// OnRequestEnd is called after an HTTP request completes.
func (h *CLIHooks) OnRequestEnd(ctx context.Context, info sdk.RequestInfo, result sdk.RequestResult) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordRequestFromSDK(info, result)
	}
	if level >= 2 && writer != nil {
		writer.WriteRequestEnd(info, result)
	}
}

// OnRetry is called before the request is replayed with a refreshed token.
func (h *CLIHooks) OnRetry(ctx context.Context, info sdk.RequestInfo, attempt int, err error) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordRetry()
	}
	if level >= 2 && writer != nil {
		writer.WriteRetry(info, attempt, err)
	}
}

// OnRefresh is called after each network refresh of the credential.
func (h *CLIHooks) OnRefresh(ctx context.Context, err error, duration time.Duration) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordRefresh(err)
	}
	if level >= 1 && writer != nil {
		writer.WriteRefresh(err, duration)
	}
}

// OnPoll is called after each job status lookup.
func (h *CLIHooks) OnPoll(ctx context.Context, info sdk.PollInfo, err error) {
	level, collector, writer := h.snapshot()
	if collector != nil {
		collector.RecordPoll()
	}
	if level >= 1 && writer != nil {
		writer.WritePoll(info, err)
	}
}
