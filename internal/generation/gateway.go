package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storyspark/internal/llm"
	"storyspark/internal/story"
)

// ErrMalformedResponse is returned when the model reply does not decode into
// the requested shape or fails validation.
var ErrMalformedResponse = errors.New("generation: malformed response")

// Gateway turns a story config into a proposal or a book.
type Gateway interface {
	RequestProposal(ctx context.Context, cfg story.Config) (story.Proposal, error)
	RequestBook(ctx context.Context, cfg story.Config) (story.Book, error)
}

type Options struct {
	Chapters       int
	ThinkingBudget int
	Logger         *zap.Logger
}

// LLMGateway implements Gateway on top of an llm.Client.
type LLMGateway struct {
	client         llm.Client
	chapters       int
	thinkingBudget int
	log            *zap.Logger
}

func NewLLMGateway(client llm.Client, opts Options) *LLMGateway {
	if opts.Chapters <= 0 {
		opts.Chapters = 5
	}
	if opts.ThinkingBudget < 0 {
		opts.ThinkingBudget = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &LLMGateway{
		client:         client,
		chapters:       opts.Chapters,
		thinkingBudget: opts.ThinkingBudget,
		log:            opts.Logger,
	}
}

// Chapters is the number of chapters every book must have.
func (g *LLMGateway) Chapters() int { return g.chapters }

func (g *LLMGateway) RequestProposal(ctx context.Context, cfg story.Config) (story.Proposal, error) {
	ctx = llm.WithPhase(ctx, llm.PhaseProposal)
	raw, err := g.client.GenerateJSON(ctx, llm.Request{
		Model:  cfg.ModelName,
		System: SystemPrompt,
		Prompt: ProposalPrompt(cfg),
		Schema: ProposalSchema(),
	})
	if err != nil {
		return story.Proposal{}, fmt.Errorf("request proposal: %w", err)
	}
	var p story.Proposal
	if err := decodeStrict(raw, &p); err != nil {
		return story.Proposal{}, err
	}
	if err := p.Validate(); err != nil {
		return story.Proposal{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	g.log.Debug("proposal received", zap.String("title", p.Title), zap.Int("characters", len(p.Characters)))
	return p, nil
}

func (g *LLMGateway) RequestBook(ctx context.Context, cfg story.Config) (story.Book, error) {
	ctx = llm.WithPhase(ctx, llm.PhaseBook)
	raw, err := g.client.GenerateJSON(ctx, llm.Request{
		Model:          cfg.ModelName,
		System:         SystemPrompt,
		Prompt:         BookPrompt(cfg, g.chapters),
		Schema:         BookSchema(),
		ThinkingBudget: g.thinkingBudget,
	})
	if err != nil {
		return story.Book{}, fmt.Errorf("request book: %w", err)
	}
	var b story.Book
	if err := decodeStrict(raw, &b); err != nil {
		return story.Book{}, err
	}
	if err := b.Validate(g.chapters); err != nil {
		return story.Book{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	g.log.Debug("book received", zap.String("title", b.Title), zap.Int("chapters", len(b.Chapters)))
	return b, nil
}

// decodeStrict requires a JSON object. Unknown fields are tolerated; a bare
// array, string or null is not.
func decodeStrict(raw json.RawMessage, out any) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
