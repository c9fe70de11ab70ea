package testsupport

import (
	"context"
	"errors"
	"sync"
)

// Reply produces a scripted completion for one call.
type Reply func(systemPrompt, userPrompt string) (string, error)

// Static always returns text.
func Static(text string) Reply {
	return func(string, string) (string, error) { return text, nil }
}

// Fail always returns err.
func Fail(err error) Reply {
	return func(string, string) (string, error) { return "", err }
}

// Call records one Generate invocation.
type Call struct {
	System string
	User   string
}

// ErrUnscripted is returned for a system prompt with no registered reply.
var ErrUnscripted = errors.New("testsupport: no reply scripted for system prompt")

// FakeLLM is an inference client whose replies are chosen by system prompt.
// Safe for concurrent use.
type FakeLLM struct {
	mu       sync.Mutex
	replies  map[string]Reply
	calls    []Call
	onCall   func(Call)
	fallback Reply
}

// NewFakeLLM returns a client with no scripted replies.
func NewFakeLLM() *FakeLLM {
	return &FakeLLM{replies: map[string]Reply{}}
}

// On scripts the reply for calls made with systemPrompt.
func (f *FakeLLM) On(systemPrompt string, reply Reply) *FakeLLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[systemPrompt] = reply
	return f
}

// Otherwise scripts the reply for any unregistered system prompt.
func (f *FakeLLM) Otherwise(reply Reply) *FakeLLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = reply
	return f
}

// OnCall registers a hook run before each reply, e.g. to cancel a context
// part way through a run.
func (f *FakeLLM) OnCall(fn func(Call)) *FakeLLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onCall = fn
	return f
}

func (f *FakeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string, _ int, _ float64) (string, error) {
	call := Call{System: systemPrompt, User: userPrompt}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	reply, ok := f.replies[systemPrompt]
	if !ok {
		reply = f.fallback
	}
	hook := f.onCall
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if reply == nil {
		return "", ErrUnscripted
	}
	return reply(systemPrompt, userPrompt)
}

// Calls returns a copy of every recorded call in order.
func (f *FakeLLM) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsWithSystem counts calls made with systemPrompt.
func (f *FakeLLM) CallsWithSystem(systemPrompt string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.System == systemPrompt {
			n++
		}
	}
	return n
}

// Reset clears the call log but keeps the scripted replies.
func (f *FakeLLM) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
