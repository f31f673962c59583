package classify

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIBackendConfig holds OpenAI-specific backend configuration.
type OpenAIBackendConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// OpenAIBackend completes classification prompts against the OpenAI API.
type OpenAIBackend struct {
	client *openai.Client
	logger *logrus.Logger
}

// NewOpenAIBackend creates the OpenAI-backed classifier backend.
func NewOpenAIBackend(config *OpenAIBackendConfig, logger *logrus.Logger) *OpenAIBackend {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}
}

// Name returns the backend identifier.
func (b *OpenAIBackend) Name() string { return "openai" }

// Complete sends one deterministic (temperature 0) completion request.
func (b *OpenAIBackend) Complete(ctx context.Context, model, system, prompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		b.logger.WithError(err).Debug("OpenAI classification call failed")
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
