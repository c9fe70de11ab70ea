// Package inference defines the text-generation contract used by the
// extraction stages and builds the configured backend (OpenRouter, OpenAI, or
// Gemini).
//
// Every backend returned by New is wrapped by Classify so callers can rely on
// three outcomes: text, ErrEmptyResponse (recoverable per segment), or an
// error tagged services.ErrInference / services.ErrTimeout (stage-fatal).
package inference
