package llm

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fast fake client that returns immediately
type fastClient struct{ closed bool }

func (f *fastClient) Name() string  { return "fast" }
func (f *fastClient) Close() error { f.closed = true; return nil }
func (f *fastClient) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

// spy records timestamps when requests reach the inner client
type spyingClient struct {
	next  Client
	mu    sync.Mutex
	times []time.Time
}

func (s *spyingClient) Name() string { return s.next.Name() }
func (s *spyingClient) Close() error { return s.next.Close() }
func (s *spyingClient) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	s.mu.Lock()
	s.times = append(s.times, time.Now())
	s.mu.Unlock()
	return s.next.GenerateJSON(ctx, req)
}

func TestRate_RPS_2PerSecond_Burst1_Spacing(t *testing.T) {
	spy := &spyingClient{next: &fastClient{}}
	cli := Wrap(spy, RateLimit(2, 1))
	t.Cleanup(func() { _ = cli.Close() })

	ctx := context.Background()
	start := time.Now()
	_, err := cli.GenerateJSON(ctx, Request{})
	require.NoError(t, err)
	_, err = cli.GenerateJSON(ctx, Request{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 450*time.Millisecond, "second call must wait for a token")
	assert.Len(t, spy.times, 2)
}

func TestRate_Disabled(t *testing.T) {
	cli := RateLimit(0, 0)(&fastClient{})
	start := time.Now()
	for i := 0; i < 5; i++ {
		_, err := cli.GenerateJSON(context.Background(), Request{})
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRate_CanceledContextStopsWaiting(t *testing.T) {
	cli := RateLimit(0.1, 1)(&fastClient{})
	t.Cleanup(func() { _ = cli.Close() })
	_, err := cli.GenerateJSON(context.Background(), Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = cli.GenerateJSON(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRate_CloseStopsLimiterAndInner(t *testing.T) {
	inner := &fastClient{}
	cli := RateLimit(1, 1)(inner)
	require.NoError(t, cli.Close())
	assert.True(t, inner.closed)
	require.NoError(t, cli.Close(), "closing twice is safe")
}
