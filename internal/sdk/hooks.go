package sdk

import (
	"context"
	"time"
)

// OperationInfo describes a named SDK operation such as Transfer.Tokens.
type OperationInfo struct {
	Service    string // e.g., "Transfer", "Wallets"
	Operation  string // e.g., "Tokens", "Create"
	IsMutation bool
}

// RequestInfo describes one HTTP exchange made by the gateway.
type RequestInfo struct {
	ID      string // per-call trace id, shared by the retry
	Method  string
	URL     string
	Attempt int
}

// RequestResult describes how an HTTP exchange ended.
type RequestResult struct {
	StatusCode int
	Duration   time.Duration
	Retryable  bool
	Error      error
}

// PollInfo describes one job lookup.
type PollInfo struct {
	JobID       string
	Attempt     int
	MaxAttempts int
}

// Hooks receives lifecycle callbacks from the gateway, session and poller.
type Hooks interface {
	OnOperationStart(ctx context.Context, op OperationInfo) context.Context
	OnOperationEnd(ctx context.Context, op OperationInfo, err error, duration time.Duration)
	OnRequestStart(ctx context.Context, info RequestInfo) context.Context
	OnRequestEnd(ctx context.Context, info RequestInfo, result RequestResult)
	OnRetry(ctx context.Context, info RequestInfo, attempt int, err error)
	OnRefresh(ctx context.Context, err error, duration time.Duration)
	OnPoll(ctx context.Context, info PollInfo, err error)
}

// NoopHooks ignores every callback.
type NoopHooks struct{}

func (NoopHooks) OnOperationStart(ctx context.Context, _ OperationInfo) context.Context { return ctx }
func (NoopHooks) OnOperationEnd(context.Context, OperationInfo, error, time.Duration) {}
func (NoopHooks) OnRequestStart(ctx context.Context, _ RequestInfo) context.Context { return ctx }
func (NoopHooks) OnRequestEnd(context.Context, RequestInfo, RequestResult) {}
func (NoopHooks) OnRetry(context.Context, RequestInfo, int, error) {}
func (NoopHooks) OnRefresh(context.Context, error, time.Duration) {}
func (NoopHooks) OnPoll(context.Context, PollInfo, error) {}
