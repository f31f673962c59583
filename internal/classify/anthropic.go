package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
)

// AnthropicBackendConfig holds Anthropic-specific backend configuration.
type AnthropicBackendConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AnthropicBackend completes classification prompts against the
// Anthropic API.
type AnthropicBackend struct {
	client *anthropic.Client
	logger *logrus.Logger
}

// NewAnthropicBackend creates the Anthropic-backed classifier backend.
func NewAnthropicBackend(config *AnthropicBackendConfig, logger *logrus.Logger) *AnthropicBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &AnthropicBackend{
		client: &client,
		logger: logger,
	}
}

// Name returns the backend identifier.
func (b *AnthropicBackend) Name() string { return "anthropic" }

// Complete sends one bounded message request and concatenates the text
// blocks of the reply.
func (b *AnthropicBackend) Complete(ctx context.Context, model, system, prompt string) (string, error) {
	req := anthropic.MessageNewParams{
		Model: anthropic.Model(model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		MaxTokens: 256,
	}
	if system != "" {
		req.System = []anthropic.TextBlockParam{
			{Text: system, Type: "text"},
		}
	}

	resp, err := b.client.Messages.New(ctx, req)
	if err != nil {
		b.logger.WithError(err).Debug("Anthropic classification call failed")
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return sb.String(), nil
}
