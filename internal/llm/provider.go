package llm

import (
	"context"
	"fmt"
	"net/http"
)

type ProviderConfig struct {
	Provider string // gemini | openai
	APIKey   string
	Model    string
	BaseURL  string
}

func NewModel(ctx context.Context, cfg ProviderConfig) (TextModel, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	case "openai", "":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm: base url is required for provider %q", "openai")
		}
		// per-call deadlines come from Client
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model, &http.Client{}), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
