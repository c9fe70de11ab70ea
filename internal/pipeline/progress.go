package pipeline

import (
	"fmt"
	"sync"
)

// progressTracker maps per-stage unit progress onto an overall percentage
// and keeps it monotonic across the run.
type progressTracker struct {
	taskID     string
	totalSteps int
	report     ProgressFunc

	mu   sync.Mutex
	last float64
}

func newProgressTracker(taskID string, totalSteps int, report ProgressFunc) *progressTracker {
	return &progressTracker{taskID: taskID, totalSteps: totalSteps, report: report}
}

func (p *progressTracker) stepSpan() float64 {
	if p.totalSteps <= 0 {
		return 100
	}
	return 100 / float64(p.totalSteps)
}

// emit clamps percent to [last,100] and forwards it.
func (p *progressTracker) emit(message string, percent float64, step int, stepName string) {
	p.mu.Lock()
	percent = min(max(percent, p.last), 100)
	p.last = percent
	p.mu.Unlock()
	if p.report != nil {
		p.report(p.taskID, message, percent, step+1, p.totalSteps, stepName)
	}
}

// stage returns the segment progress callback for step index step.
func (p *progressTracker) stage(step int, displayName string) func(current, total int) {
	base := float64(step) * p.stepSpan()
	return func(current, total int) {
		frac := 1.0
		if total > 0 {
			frac = float64(min(max(current, 0), total)) / float64(total)
		}
		msg := fmt.Sprintf("%s %d/%d", displayName, current, total)
		p.emit(msg, base+frac*p.stepSpan(), step, displayName)
	}
}

// resume reports the starting point of a resumed run.
func (p *progressTracker) resume(step int, displayName string) {
	p.emit(fmt.Sprintf("Resuming at %s", displayName), float64(step)*p.stepSpan(), step, displayName)
}

func (p *progressTracker) done(step int, message string) {
	p.emit(message, 100, step, "")
}

// percent returns the last reported value.
func (p *progressTracker) percent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
