package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint. The
// response schema travels inside the system message.
type OpenAIClient struct {
	opts []option.RequestOption
}

func NewOpenAIClient(apiKey, baseURL string) (*OpenAIClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key missing")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if u := strings.TrimSpace(baseURL); u != "" {
		opts = append(opts, option.WithBaseURL(u))
	}
	return &OpenAIClient{opts: opts}, nil
}

func (o *OpenAIClient) Name() string { return "OpenAI" }
func (o *OpenAIClient) Close() error { return nil }

func (o *OpenAIClient) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	system, err := openAISystem(req)
	if err != nil {
		return nil, Permanent(err)
	}
	client := openai.NewClient(o.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(req.Prompt),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrInvalidJSON)
	}
	txt := stripFences(resp.Choices[0].Message.Content)
	if !json.Valid([]byte(txt)) {
		return nil, fmt.Errorf("%w: %d bytes from %s", ErrInvalidJSON, len(txt), req.Model)
	}
	return json.RawMessage(txt), nil
}

func openAISystem(req Request) (string, error) {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(req.System))
	sb.WriteString("\n\nReply with a single JSON value and nothing else.")
	if req.Schema != nil {
		b, err := json.Marshal(req.Schema)
		if err != nil {
			return "", fmt.Errorf("encode schema: %w", err)
		}
		sb.WriteString(" It must conform to this schema:\n")
		sb.Write(b)
	}
	return strings.TrimSpace(sb.String()), nil
}

// stripFences removes a surrounding ```json ... ``` block if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
