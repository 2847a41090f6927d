package llm

import "context"

const (
	PhaseProposal = "proposal"
	PhaseBook     = "book"
)

type ctxKeyPhase struct{}

// WithPhase tags ctx with the generation step for logs and metrics.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
