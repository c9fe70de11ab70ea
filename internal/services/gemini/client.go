// Package gemini adapts the Google GenAI SDK to the voicecast
// text-generation contract.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultTimeout = 60 * time.Second

// ErrEmptyContent reports a response whose first candidate carried no text.
var ErrEmptyContent = errors.New("gemini: empty response content")

// Config captures connection settings.
type Config struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
}

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Client issues JSON-mode generate calls through genai.
type Client struct {
	model    string
	timeout  time.Duration
	generate generateFunc
}

// NewClient constructs a Gemini API client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newClient(cfg, client.Models.GenerateContent), nil
}

func newClient(cfg Config, generate generateFunc) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		model:    strings.TrimSpace(cfg.Model),
		timeout:  timeout,
		generate: generate,
	}
}

// Generate sends the prompts with the system prompt as a system instruction
// and returns the concatenated text of the first candidate.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", errors.New("gemini generate: user prompt required")
	}
	temp := float32(temperature)
	genCfg := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	if maxTokens > 0 {
		genCfg.MaxOutputTokens = int32(maxTokens)
	}
	if strings.TrimSpace(systemPrompt) != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: userPrompt}}}}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.generate(callCtx, c.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text, finishReason := candidateText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini generate: finish_reason=%q: %w", finishReason, ErrEmptyContent)
	}
	return text, nil
}

func candidateText(resp *genai.GenerateContentResponse) (string, string) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return "", ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String()), string(candidate.FinishReason)
}
