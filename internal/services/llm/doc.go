// Package llm provides an OpenRouter-compatible chat completion client used as
// the default text-generation backend for chapter analysis.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.Generate: send system/user prompts in JSON mode with a token limit
// and temperature, receive the raw model text.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: tolerant decode of fenced or prose-wrapped JSON, with
// jsonrepair as the last resort for near-JSON.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx, network timeouts, and empty
// completions with exponential backoff (base 1s, max 10s). Retry-After
// headers are honoured. Context cancellation aborts retries immediately.
// Exhausted empty completions surface as ErrEmptyContent.
package llm
