package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"storyspark/internal/metrics"
	"storyspark/internal/tracer"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (rate limiting, retries, logging, metrics, tracing).
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate Limiting --------

// RateLimit limits request rate. If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next Client
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}
func (c *rateLimited) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	return c.next.GenerateJSON(ctx, req)
}

// -------- Retry with exponential backoff --------

// Retry retries GenerateJSON up to maxAttempts with exponential backoff
// starting at baseDelay. Permanent errors and canceled contexts stop it
// immediately. maxAttempts of 1 means a single attempt.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }
func (r *retrying) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.GenerateJSON(ctx, req)
		if err == nil {
			return resp, nil
		}
		if IsPermanent(err) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		last = err
		if i == r.max-1 {
			break
		}
		t := time.NewTimer(r.base * time.Duration(1<<i))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, last
}

// -------- Logging --------

// WithLogging logs request size, latency and errors.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Client) Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Client
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	start := time.Now()
	fields := []zap.Field{
		zap.String("phase", PhaseFrom(ctx)),
		zap.String("model", req.Model),
		zap.String("client", l.next.Name()),
	}
	l.log.Debug("llm request", append(fields, zap.Int("bytes", len(req.System)+len(req.Prompt)))...)
	raw, err := l.next.GenerateJSON(ctx, req)
	fields = append(fields, zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		l.log.Warn("llm error", append(fields, zap.Error(err))...)
		return nil, err
	}
	l.log.Info("llm response", append(fields, zap.Int("bytes", len(raw)))...)
	return raw, nil
}

// -------- Metrics --------

// WithMetrics records request counts and latency in Prometheus.
func WithMetrics() Middleware {
	return func(next Client) Client {
		return &measured{next: next}
	}
}

type measured struct{ next Client }

func (m *measured) Name() string { return m.next.Name() }
func (m *measured) Close() error { return m.next.Close() }
func (m *measured) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	phase := PhaseFrom(ctx)
	start := time.Now()
	raw, err := m.next.GenerateJSON(ctx, req)
	metrics.LLMRequestDuration.WithLabelValues(req.Model, phase).Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequestsTotal.WithLabelValues(req.Model, phase, status).Inc()
	return raw, err
}

// -------- Tracing --------

// WithTracing wraps each call in an OpenTelemetry span.
func WithTracing() Middleware {
	return func(next Client) Client {
		return &traced{next: next}
	}
}

type traced struct{ next Client }

func (t *traced) Name() string { return t.next.Name() }
func (t *traced) Close() error { return t.next.Close() }
func (t *traced) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "llm.GenerateJSON")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", req.Model),
		attribute.String("llm.phase", PhaseFrom(ctx)),
	)
	raw, err := t.next.GenerateJSON(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("llm.response_bytes", len(raw)))
	return raw, nil
}
