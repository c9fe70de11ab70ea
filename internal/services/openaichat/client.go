// Package openaichat adapts the official OpenAI Go SDK to the voicecast
// text-generation contract. It also serves any OpenAI-compatible endpoint via
// Config.BaseURL.
package openaichat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

const defaultTimeout = 60 * time.Second

// ErrEmptyContent reports a completion that carried no text.
var ErrEmptyContent = errors.New("openai: empty completion content")

// Config captures connection settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
	RetryAttempts  int
}

// Client issues JSON-mode chat completions through openai-go.
type Client struct {
	model  string
	client openai.Client
}

// NewClient constructs a client. The SDK handles retry with backoff on
// 408/409/429/5xx.
func NewClient(cfg Config, extra ...option.RequestOption) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithRequestTimeout(timeout),
	}
	if cfg.RetryAttempts > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.RetryAttempts-1))
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	opts = append(opts, extra...)
	return &Client{
		model:  strings.TrimSpace(cfg.Model),
		client: openai.NewClient(opts...),
	}
}

// Generate sends the prompts and returns the first choice's content.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", errors.New("openai generate: user prompt required")
	}
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: param.NewOpt(temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	var finishReason string
	for _, choice := range resp.Choices {
		if finishReason == "" {
			finishReason = choice.FinishReason
		}
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", fmt.Errorf("openai generate: finish_reason=%q: %w", finishReason, ErrEmptyContent)
}
