package inference

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"voicecast/internal/config"
	"voicecast/internal/services"
	"voicecast/internal/services/llm"
)

type stubBackend struct {
	out string
	err error
}

func (s stubBackend) Generate(context.Context, string, string, int, float64) (string, error) {
	return s.out, s.err
}

func TestClassifyMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		out    string
		target error
	}{
		{"blank output", nil, "  ", ErrEmptyResponse},
		{"llm empty content", fmt.Errorf("wrapped: %w", llm.ErrEmptyContent), "", ErrEmptyResponse},
		{"deadline", context.DeadlineExceeded, "", services.ErrTimeout},
		{"http failure", errors.New("http 500"), "", services.ErrInference},
		{"canceled", context.Canceled, "", context.Canceled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := Classify(stubBackend{out: tc.out, err: tc.err})
			_, err := client.Generate(context.Background(), "s", "u", 1, 0)
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
		})
	}
}

func TestClassifyPassesThroughContent(t *testing.T) {
	client := Classify(stubBackend{out: `{"ok":true}`})
	out, err := client.Generate(context.Background(), "s", "u", 1, 0)
	if err != nil || out != `{"ok":true}` {
		t.Fatalf("unexpected result %q %v", out, err)
	}
	if Classify(client) != client {
		t.Fatal("expected Classify to be idempotent")
	}
}

func TestHealthCheckFallsBackToGenerate(t *testing.T) {
	client := Classify(stubBackend{err: errors.New("down")})
	checker, ok := client.(HealthChecker)
	if !ok {
		t.Fatal("classified client should implement HealthChecker")
	}
	if err := checker.HealthCheck(context.Background()); !errors.Is(err, services.ErrInference) {
		t.Fatalf("expected inference error, got %v", err)
	}
}

func TestNewRequiresKeyAndKnownProvider(t *testing.T) {
	if _, err := New(context.Background(), config.LLMConfig{Provider: config.ProviderOpenRouter}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := New(context.Background(), config.LLMConfig{Provider: "bogus", APIKey: "k"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	client, err := New(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI, APIKey: "k", Model: "m"})
	if err != nil || client == nil {
		t.Fatalf("expected openai client, got %v", err)
	}
}
