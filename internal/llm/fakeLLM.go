package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FakeClient returns deterministic story payloads per phase for offline runs
// and tests.
type FakeClient struct {
	chapters int
}

func NewFakeClient(chapters int) *FakeClient {
	if chapters <= 0 {
		chapters = 5
	}
	return &FakeClient{chapters: chapters}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idea := quotedIdea(req.Prompt)
	var obj any
	switch PhaseFrom(ctx) {
	case PhaseProposal:
		obj = map[string]any{
			"title":    "The Story of " + idea,
			"ageGroup": "4-6 years",
			"characters": []map[string]string{
				{"name": "Pip", "description": "a curious hero"},
				{"name": "Moss", "description": "a patient friend"},
			},
			"setting": "a quiet village at the edge of a forest",
			"theme":   "friendship",
			"plotOutline": map[string]string{
				"beginning": "Pip meets a problem.",
				"middle":    "Pip and Moss try and fail, then try again.",
				"ending":    "Together they solve it.",
			},
			"moral": "Kindness grows when it is shared.",
		}
	case PhaseBook:
		chapters := make([]map[string]any, 0, f.chapters)
		for i := 1; i <= f.chapters; i++ {
			chapters = append(chapters, map[string]any{
				"chapterNumber":           i,
				"title":                   fmt.Sprintf("Chapter %d", i),
				"content":                 fmt.Sprintf("Part %d of the story of %s.", i, idea),
				"illustrationPlaceholder": fmt.Sprintf("Scene %d in soft watercolors.", i),
			})
		}
		obj = map[string]any{
			"title":    "The Story of " + idea,
			"summary":  "A gentle tale about " + idea + ".",
			"chapters": chapters,
		}
	default:
		obj = map[string]any{}
	}
	b, _ := json.Marshal(obj)
	return json.RawMessage(b), nil
}

// quotedIdea returns the first Go-quoted string in a prompt, unescaped.
func quotedIdea(prompt string) string {
	const fallback = "a small adventure"
	start := strings.IndexByte(prompt, '"')
	if start < 0 {
		return fallback
	}
	quoted, err := strconv.QuotedPrefix(prompt[start:])
	if err != nil {
		return fallback
	}
	idea, err := strconv.Unquote(quoted)
	if err != nil || strings.TrimSpace(idea) == "" {
		return fallback
	}
	return strings.TrimSpace(idea)
}
