package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storyspark/internal/config"
	"storyspark/internal/llm"
	"storyspark/internal/story"
)

// newLLMStack builds the provider clients, the catalog they serve and the
// middleware chain around them.
func newLLMStack(ctx context.Context, cfg *config.Config, log *zap.Logger) (llm.Client, *story.Catalog, error) {
	catalog := story.DefaultCatalog()
	var extra []story.Model
	for _, id := range cfg.LLM.OpenAIModels {
		extra = append(extra, story.Model{ID: id, Provider: story.ProviderOpenAI})
	}
	catalog = catalog.With(extra...)

	var inner llm.Client
	if cfg.LLM.Fake {
		log.Warn("using the offline fake model client")
		inner = llm.NewFakeClient(cfg.Story.Chapters)
	} else {
		providers := map[story.Provider]llm.Client{}
		gemini, err := llm.NewGeminiClient(ctx, cfg.LLM.GeminiAPIKey)
		if err != nil {
			log.Warn("gemini provider unavailable", zap.Error(err))
		} else {
			providers[story.ProviderGemini] = gemini
		}
		if cfg.LLM.OpenAIAPIKey != "" {
			openai, err := llm.NewOpenAIClient(cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIBaseURL)
			if err != nil {
				return nil, nil, err
			}
			providers[story.ProviderOpenAI] = openai
		}
		if len(providers) == 0 {
			return nil, nil, fmt.Errorf("no model provider configured: set GEMINI_API_KEY, OPENAI_API_KEY or LLM_FAKE=true")
		}
		inner = llm.NewDispatch(catalog, providers)
	}

	client := llm.Wrap(inner,
		llm.WithTracing(),
		llm.WithMetrics(),
		llm.Retry(cfg.LLM.MaxAttempts, cfg.LLM.RetryBaseDelay),
		llm.WithLogging(log),
		llm.RateLimit(cfg.LLM.RPS, cfg.LLM.Burst),
	)
	return client, catalog, nil
}
