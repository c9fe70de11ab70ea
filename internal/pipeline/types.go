package pipeline

import (
	"time"

	"voicecast/internal/analysis"
)

// Status is the terminal state of one run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ProgressFunc receives overall run progress. percent is in [0,100] and never
// decreases within a run. currentStep is 1-based.
type ProgressFunc func(taskID, message string, percent float64, currentStep, totalSteps int, stepName string)

// StepCompletedFunc is invoked after each stage with the characters found so
// far, sorted by key. Errors and panics are logged and otherwise ignored.
type StepCompletedFunc func(stepIndex int, stepName string, characters []*analysis.Character) error

// Request describes one chapter to analyze. The callbacks are optional.
type Request struct {
	OwnerID    int64
	SubID      int64
	Paragraphs []string

	OnProgress      ProgressFunc
	OnStepCompleted StepCompletedFunc
}

// Result reports how a run ended.
type Result struct {
	Status  Status
	TaskID  string
	OwnerID int64
	SubID   int64

	// ResumedFrom is the index of the first stage executed in this run.
	ResumedFrom    int
	CharacterCount int
	DialogCount    int
	Duration       time.Duration

	// Message is a human-readable summary; for failures it names the cause.
	Message string
	Err     error

	// Context holds the final analysis for completed runs and the last
	// consistent state otherwise.
	Context *analysis.Context
}

// Characters returns the analyzed characters sorted by key, or nil.
func (r Result) Characters() []*analysis.Character {
	if r.Context == nil {
		return nil
	}
	return r.Context.SortedCharacters()
}
