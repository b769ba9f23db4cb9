package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/maraichr/ontograph/internal/config"
)

// New builds the Completer selected by cfg.LLM.Provider.
func New(ctx context.Context, cfg *config.Config) (Completer, error) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "", "openai":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY is required for provider openai")
		}
		return NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL,
			WithTemperature(cfg.LLM.Temperature),
			WithMaxTokens(cfg.LLM.MaxTokens),
			WithTimeout(cfg.LLM.Timeout),
		), nil
	case "bedrock":
		c, err := NewBedrockClient(ctx, cfg.Bedrock.Region, cfg.Bedrock.ModelID, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
