// Package stage defines the contract shared by the pipeline's extraction
// passes.
package stage

import (
	"context"

	"voicecast/internal/analysis"
	"voicecast/internal/inference"
)

// Config bounds one stage's inference calls.
type Config struct {
	MaxTokens       int
	Temperature     float64
	MaxSegmentChars int
}

// ProgressFunc receives segment progress within a stage. current counts
// completed units and runs from 0 to total.
type ProgressFunc func(current, total int)

// Report calls fn when it is non-nil.
func (fn ProgressFunc) Report(current, total int) {
	if fn != nil {
		fn(current, total)
	}
}

// Stage is one ordered unit of pipeline work. Execute must not modify ac; it
// returns an updated copy, or an error and no context.
type Stage interface {
	// Name is the stable identifier used in logs and callbacks.
	Name() string
	// DisplayName is the label shown in progress output.
	DisplayName() string
	Execute(ctx context.Context, client inference.Client, ac *analysis.Context, cfg Config, progress ProgressFunc) (*analysis.Context, error)
}
