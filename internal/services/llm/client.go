package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEndpoint    = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout = 60 * time.Second
)

// ErrEmptyContent reports a completion that carried no usable text.
var ErrEmptyContent = errors.New("llm: empty completion content")

// Config captures the runtime settings required to talk to an
// OpenRouter-compatible chat completion endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	RetryAttempts  int
}

// Client wraps the OpenRouter chat completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the configured attempt count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retry.attempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.baseDelay = baseDelay
		c.retry.maxDelay = maxDelay
	}
}

// WithSleeper replaces the wait between attempts; tests use it to record
// delays without sleeping.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.retry.sleeper = sleeper
	}
}

// NewClient constructs a client from cfg. Zero timeout and retry values fall
// back to the package defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}

	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		retry:      newRetryPolicy(cfg.RetryAttempts),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Model reports the configured model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Generate sends one JSON-mode chat completion and returns the raw text the
// model produced. maxTokens <= 0 leaves the limit to the provider.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("llm generate: user prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("llm generate: api key required")
	}
	return c.complete(ctx, newJSONRequest(c.cfg.Model, systemPrompt, userPrompt, maxTokens, temperature), "llm generate")
}

// HealthCheck asks for a trivial JSON object to prove the key and model work.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.Generate(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`, 16, 0)
	if err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

// complete runs one request under the retry policy.
func (c *Client) complete(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	attempts := c.retry.maxAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.send(ctx, payload, op)
		if err == nil {
			return content, nil
		}
		delay, again := c.retry.next(ctx, err, attempt)
		if !again {
			return "", err
		}
		if sleepErr := c.retry.wait(ctx, delay); sleepErr != nil {
			return "", sleepErr
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}
