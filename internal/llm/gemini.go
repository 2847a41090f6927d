package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (rate limiting, retries, logging) are applied via Middleware.
type GeminiClient struct {
	cli *genai.Client
}

// NewGeminiClient builds a Gemini API client. An empty apiKey lets genai read
// GOOGLE_API_KEY / GEMINI_API_KEY from the environment.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &GeminiClient{cli: cli}, nil
}

func (g *GeminiClient) Name() string { return "Gemini" }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.Prompt}}}},
		geminiConfig(req),
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrInvalidJSON
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	txt := strings.TrimSpace(sb.String())
	if !json.Valid([]byte(txt)) {
		return nil, fmt.Errorf("%w: %d bytes from %s", ErrInvalidJSON, len(txt), req.Model)
	}
	return json.RawMessage(txt), nil
}

func geminiConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}
	if s := strings.TrimSpace(req.System); s != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: s}}}
	}
	if req.ThinkingBudget > 0 {
		budget := int32(req.ThinkingBudget)
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}
	return cfg
}
