package llm

import (
	"context"
	"fmt"

	"menu-spinner/internal/config"
)

// NewFromConfig builds the text generator selected by cfg.LLMProvider.
// The result may also implement Closer.
func NewFromConfig(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		gen, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case config.ProviderGroq:
		return NewGroqClient(cfg, 0.2), nil
	case config.ProviderOpenAI:
		gen, err := NewLangchainClient(cfg)
		if err != nil {
			return nil, err
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}
