package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) Name() string { return "scripted" }
func (s *scriptedClient) Close() error { return nil }
func (s *scriptedClient) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func TestWrapOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Client) Client {
			order = append(order, name)
			return next
		}
	}
	Wrap(&fastClient{}, tag("outer"), tag("inner"))
	assert.Equal(t, []string{"inner", "outer"}, order, "inner wraps first so outer sees the call first")
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	inner := &scriptedClient{errs: []error{errors.New("503"), errors.New("503")}}
	cli := Retry(3, time.Millisecond)(inner)
	raw, err := cli.GenerateJSON(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, 3, inner.calls)
}

func TestRetry_SingleAttemptByDefault(t *testing.T) {
	boom := errors.New("boom")
	inner := &scriptedClient{errs: []error{boom}}
	_, err := Retry(0, 0)(inner).GenerateJSON(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, inner.calls)
}

func TestRetry_PermanentErrorIsNotRetried(t *testing.T) {
	inner := &scriptedClient{errs: []error{Permanent(ErrNoProvider), nil}}
	_, err := Retry(5, time.Millisecond)(inner).GenerateJSON(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, inner.calls)
}

func TestRetry_StopsOnCanceledContext(t *testing.T) {
	inner := &scriptedClient{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Retry(3, time.Hour)(inner).GenerateJSON(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestWithLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	inner := &scriptedClient{errs: []error{nil, errors.New("quota")}}
	cli := WithLogging(zap.New(core))(inner)
	ctx := WithPhase(context.Background(), PhaseBook)

	_, err := cli.GenerateJSON(ctx, Request{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	_, err = cli.GenerateJSON(ctx, Request{Model: "m"})
	require.Error(t, err)

	assert.Equal(t, 1, logs.FilterMessage("llm response").Len())
	warn := logs.FilterMessage("llm error").All()
	require.Len(t, warn, 1)
	assert.Equal(t, PhaseBook, warn[0].ContextMap()["phase"])
}

func TestMetricsAndTracingPassThrough(t *testing.T) {
	inner := &scriptedClient{errs: []error{nil, errors.New("x")}}
	cli := Wrap(inner, WithMetrics(), WithTracing())
	_, err := cli.GenerateJSON(context.Background(), Request{Model: "m"})
	require.NoError(t, err)
	_, err = cli.GenerateJSON(context.Background(), Request{Model: "m"})
	require.Error(t, err)
	assert.Equal(t, "scripted", cli.Name())
}

func TestPhaseFromDefault(t *testing.T) {
	assert.Equal(t, "unknown", PhaseFrom(context.Background()))
	assert.Equal(t, PhaseProposal, PhaseFrom(WithPhase(context.Background(), PhaseProposal)))
}
