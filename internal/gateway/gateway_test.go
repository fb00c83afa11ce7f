package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver lets tests script a sequence of outcomes per call, using a
// callCount closure to vary the response on each successive invocation.
type fakeDriver struct {
	kind  string
	calls int
	fail  func(callIndex int) error
	text  string
}

func (f *fakeDriver) Kind() string { return f.kind }

func (f *fakeDriver) GenerateText(ctx context.Context, model, prompt string, opts GenerationOptions) (*TextResult, error) {
	idx := f.calls
	f.calls++
	if f.fail != nil {
		if err := f.fail(idx); err != nil {
			return nil, err
		}
	}
	return &TextResult{Text: f.text}, nil
}

func newTestGateway(primary, secondary Driver, threshold int, reset time.Duration) *Gateway {
	gw := &Gateway{
		health:     NewHealthStore(threshold, reset),
		maxRetries: 0,
		retryDelay: time.Millisecond,
	}
	gw.providers = []providerEntry{
		{name: "primary", model: "m1", weight: 10, driver: primary},
	}
	if secondary != nil {
		gw.providers = append(gw.providers, providerEntry{name: "secondary", model: "m2", weight: 5, driver: secondary})
	}
	return gw
}

func TestGenerateText_SuccessFirstProvider(t *testing.T) {
	primary := &fakeDriver{kind: "anthropic", text: "hello"}
	gw := newTestGateway(primary, nil, 5, time.Minute)

	res, err := gw.GenerateText(context.Background(), "prompt", GenerationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, 1, primary.calls)
}

func TestGenerateText_FailoverToSecondary(t *testing.T) {
	primary := &fakeDriver{kind: "anthropic", fail: func(int) error { return errors.New("429 rate limit") }}
	secondary := &fakeDriver{kind: "openai", text: "from secondary"}
	gw := newTestGateway(primary, secondary, 5, time.Minute)

	res, err := gw.GenerateText(context.Background(), "prompt", GenerationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "from secondary", res.Text)
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	hs := NewHealthStore(5, time.Minute)
	for i := 0; i < 4; i++ {
		hs.RecordFailure("p")
		assert.True(t, hs.Available("p"))
	}
	hs.RecordFailure("p")
	assert.False(t, hs.Available("p"))
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	hs := NewHealthStore(5, time.Minute)
	for i := 0; i < 4; i++ {
		hs.RecordFailure("p")
	}
	hs.RecordSuccess("p")
	snap := hs.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 0, snap[0].FailureCount)
	assert.False(t, snap[0].CircuitOpen)
}

func TestCircuitBreaker_ClosesAfterResetTimeout(t *testing.T) {
	hs := NewHealthStore(1, 10*time.Millisecond)
	hs.RecordFailure("p")
	assert.False(t, hs.Available("p"))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, hs.Available("p"), "circuit should trial-close after reset_timeout")
}

func TestClassify_AuthDoesNotCountAgainstCircuit(t *testing.T) {
	pe := classify("p", "m", 401, errors.New("unauthorized"))
	assert.Equal(t, CategoryAuth, pe.Category)
	assert.False(t, pe.Category.CountsAgainstCircuit())
}

func TestClassify_ContentFilterDoesNotCountAgainstCircuit(t *testing.T) {
	pe := classify("p", "m", 0, errors.New("blocked by content filter"))
	assert.Equal(t, CategoryContentFilter, pe.Category)
	assert.False(t, pe.Category.CountsAgainstCircuit())
}

func TestClassify_RateLimitedIsRetryable(t *testing.T) {
	pe := classify("p", "m", 429, errors.New("too many requests"))
	assert.Equal(t, CategoryRateLimited, pe.Category)
	assert.True(t, pe.Retryable())
	assert.True(t, pe.Category.CountsAgainstCircuit())
}

func TestIsRetryableStatus(t *testing.T) {
	cases := map[int]bool{
		401: true, 403: true, 429: true, 500: true, 502: true, 503: true,
		400: false, 404: false,
	}
	for status, want := range cases {
		assert.Equal(t, want, isRetryableStatus(status), "status %d", status)
	}
}

func TestRingBuffer_CapsAtCapacity(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Emit(Event{Provider: "p", RetryIndex: i})
	}
	snap := rb.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, 2, snap[0].RetryIndex)
	assert.Equal(t, 4, snap[2].RetryIndex)
}
