package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voicecast/internal/config"
	"voicecast/internal/services"
	"voicecast/internal/services/gemini"
	"voicecast/internal/services/llm"
	"voicecast/internal/services/openaichat"
)

// ErrEmptyResponse reports a completion with no usable text. Stages treat it
// as an empty segment result rather than a failure.
var ErrEmptyResponse = errors.New("inference: empty response")

// Client is the text-generation contract every extraction stage depends on.
type Client interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// HealthChecker is implemented by backends that support a cheap liveness probe.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// New returns the backend selected by cfg.Provider wrapped with error
// classification.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "inference", "new client", "api key missing", nil)
	}
	var backend Client
	switch strings.ToLower(cfg.Provider) {
	case "", config.ProviderOpenRouter:
		backend = llm.NewClient(llm.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			Referer:        cfg.Referer,
			Title:          cfg.Title,
			TimeoutSeconds: cfg.TimeoutSeconds,
			RetryAttempts:  cfg.RetryAttempts,
		})
	case config.ProviderOpenAI:
		backend = openaichat.NewClient(openaichat.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			TimeoutSeconds: cfg.TimeoutSeconds,
			RetryAttempts:  cfg.RetryAttempts,
		})
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:         cfg.APIKey,
			Model:          cfg.Model,
			TimeoutSeconds: cfg.TimeoutSeconds,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "inference", "new client", "gemini client", err)
		}
		backend = client
	default:
		return nil, services.Wrap(services.ErrConfiguration, "inference", "new client", fmt.Sprintf("unknown provider %q", cfg.Provider), nil)
	}
	return Classify(backend), nil
}

// Classify wraps a backend so its failures carry service error markers:
// empty completions become ErrEmptyResponse, deadlines become
// services.ErrTimeout, everything else services.ErrInference.
func Classify(backend Client) Client {
	if backend == nil {
		return nil
	}
	if _, ok := backend.(*classified); ok {
		return backend
	}
	return &classified{backend: backend}
}

type classified struct {
	backend Client
}

func (c *classified) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	out, err := c.backend.Generate(ctx, systemPrompt, userPrompt, maxTokens, temperature)
	if err != nil {
		return "", classifyError(err)
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func (c *classified) HealthCheck(ctx context.Context) error {
	checker, ok := c.backend.(HealthChecker)
	if !ok {
		_, err := c.Generate(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`, 16, 0)
		return err
	}
	if err := checker.HealthCheck(ctx); err != nil {
		return classifyError(err)
	}
	return nil
}

func classifyError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return err
	case errors.Is(err, llm.ErrEmptyContent),
		errors.Is(err, openaichat.ErrEmptyContent),
		errors.Is(err, gemini.ErrEmptyContent):
		return fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "inference", "generate", "model call timed out", err)
	default:
		return services.Wrap(services.ErrInference, "inference", "generate", "model call failed", err)
	}
}
