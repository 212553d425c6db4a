package observability

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oktotech/okto-go/internal/sdk"
)

func TestSessionCollector_RecordRequest(t *testing.T) {
	c := NewSessionCollector()

	c.RecordRequest(RequestMetrics{Method: "GET", URL: "/api/v1/portfolio", StatusCode: 200, Duration: 50 * time.Millisecond})
	c.RecordRequest(RequestMetrics{Method: "GET", URL: "/api/v1/orders", StatusCode: 401, Duration: 10 * time.Millisecond, Error: errors.New("Unauthorized")})

	summary := c.Summary()
	assert.Equal(t, 2, summary.TotalRequests)
	assert.Equal(t, 1, summary.FailedRequests)
	assert.Equal(t, 60*time.Millisecond, summary.TotalLatency)
}

func TestSessionCollector_RecordRequestFromSDK(t *testing.T) {
	c := NewSessionCollector()

	c.RecordRequestFromSDK(
		sdk.RequestInfo{ID: "r1", Method: "POST", URL: "/api/v1/wallet", Attempt: 1},
		sdk.RequestResult{StatusCode: 200, Duration: 45 * time.Millisecond},
	)

	summary := c.Summary()
	assert.Equal(t, 1, summary.TotalRequests)
	assert.Equal(t, 0, summary.FailedRequests)
	assert.Equal(t, 45*time.Millisecond, summary.TotalLatency)
}

func TestSessionCollector_RecordOperation(t *testing.T) {
	c := NewSessionCollector()

	c.RecordOperationFromSDK(sdk.OperationInfo{Service: "Okto", Operation: "GetPortfolio"}, nil, time.Millisecond)
	c.RecordOperationFromSDK(sdk.OperationInfo{Service: "Okto", Operation: "TransferTokens", IsMutation: true}, errors.New("boom"), time.Millisecond)

	summary := c.Summary()
	assert.Equal(t, 2, summary.TotalOperations)
	assert.Equal(t, 1, summary.FailedOps)
}

func TestSessionCollector_RefreshRetryAndPolls(t *testing.T) {
	c := NewSessionCollector()

	c.RecordRetry()
	c.RecordRefresh(nil)
	c.RecordRefresh(errors.New("HTTP 401"))
	c.RecordPoll()
	c.RecordPoll()
	c.RecordPoll()

	summary := c.Summary()
	assert.Equal(t, 1, summary.TotalRetries)
	assert.Equal(t, 2, summary.Refreshes)
	assert.Equal(t, 1, summary.FailedRefreshes)
	assert.Equal(t, 3, summary.Polls)
}

func TestSessionCollector_Reset(t *testing.T) {
	c := NewSessionCollector()
	c.RecordRequest(RequestMetrics{Duration: time.Second})
	c.RecordPoll()
	before := c.Summary().StartTime

	time.Sleep(5 * time.Millisecond)
	c.Reset()

	summary := c.Summary()
	assert.Zero(t, summary.TotalRequests)
	assert.Zero(t, summary.Polls)
	assert.Zero(t, summary.TotalLatency)
	assert.True(t, summary.StartTime.After(before))
}

func TestSessionCollector_Concurrent(t *testing.T) {
	c := NewSessionCollector()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordRequest(RequestMetrics{Duration: time.Millisecond})
			c.RecordOperation(OperationMetrics{})
			c.RecordRetry()
		}()
	}
	wg.Wait()

	summary := c.Summary()
	assert.Equal(t, 50, summary.TotalRequests)
	assert.Equal(t, 50, summary.TotalOperations)
	assert.Equal(t, 50, summary.TotalRetries)
}

func TestSessionMetrics_FormatParts(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := SessionMetrics{
		StartTime:      start,
		EndTime:        start.Add(1500 * time.Millisecond),
		TotalRequests:  3,
		TotalRetries:   1,
		Refreshes:      1,
		Polls:          4,
		FailedRequests: 1,
	}

	assert.Equal(t, []string{"1.5s", "3 requests", "1 retry", "1 refresh", "4 polls", "1 failed"}, m.FormatParts())
}

func TestSessionMetrics_FormatPartsQuietSession(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := SessionMetrics{StartTime: start, EndTime: start.Add(42 * time.Millisecond)}

	assert.Equal(t, []string{"42ms"}, m.FormatParts())
}
