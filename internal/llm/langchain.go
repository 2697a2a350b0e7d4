package llm

import (
	"context"
	"fmt"

	"menu-spinner/internal/config"
	"menu-spinner/internal/shared"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// langchainClient talks to any OpenAI-compatible endpoint (OpenAI,
// OpenRouter, local gateways) through langchaingo.
type langchainClient struct {
	model     llms.Model
	modelName string
}

// NewLangchainClient creates a client for the configured OpenAI-compatible endpoint.
func NewLangchainClient(cfg *config.Config) (TextGenerator, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.OpenAIAPIKey),
		openai.WithModel(cfg.OpenAIModel),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &langchainClient{model: model, modelName: cfg.OpenAIModel}, nil
}

// GenerateContent sends a single user message in JSON mode.
func (c *langchainClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	resp, err := c.model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithJSONMode(),
		llms.WithTemperature(0.2),
	)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	choice := resp.Choices[0]
	usage := shared.TokenUsage{
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:      intInfo(choice.GenerationInfo, "TotalTokens"),
		Model:            c.modelName,
	}
	return ContentResponse{Content: choice.Content, Usage: usage}, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
