package openaichat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatServer(t *testing.T, content string, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "demo",
			"choices": []any{
				map[string]any{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": content},
				},
			},
		})
	}))
}

func TestGenerateReturnsContentAndSendsLimits(t *testing.T) {
	var body map[string]any
	server := chatServer(t, `{"characters":["Alice"]}`, &body)
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL + "/v1/", Model: "demo", RetryAttempts: 1})
	out, err := client.Generate(context.Background(), "system", "user", 300, 0.25)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"characters":["Alice"]}` {
		t.Fatalf("unexpected content %q", out)
	}
	if body["model"] != "demo" {
		t.Fatalf("unexpected model %v", body["model"])
	}
	if body["max_completion_tokens"] != float64(300) {
		t.Fatalf("unexpected max tokens %v", body["max_completion_tokens"])
	}
	if body["temperature"] != 0.25 {
		t.Fatalf("unexpected temperature %v", body["temperature"])
	}
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", body["response_format"])
	}
	messages, _ := body["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %v", messages)
	}
}

func TestGenerateEmptyContent(t *testing.T) {
	server := chatServer(t, "", nil)
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL + "/v1/", Model: "demo", RetryAttempts: 1})
	if _, err := client.Generate(context.Background(), "", "user", 0, 0); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestGenerateHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL + "/v1/", Model: "demo", RetryAttempts: 1})
	_, err := client.Generate(context.Background(), "s", "u", 0, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrEmptyContent) {
		t.Fatalf("http failure must not look like empty content: %v", err)
	}
}
