package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"voicecast/internal/logging"
	"voicecast/internal/pipeline"
	"voicecast/internal/textutil"
)

const progressLineWidth = 72

// progressPrinter renders pipeline progress. On a terminal it rewrites one
// status line; otherwise events are sampled into the log.
type progressPrinter struct {
	out     io.Writer
	logger  *slog.Logger
	live    bool
	sampler *logging.ProgressSampler

	mu      sync.Mutex
	written bool
}

func newProgressPrinter(out io.Writer, logger *slog.Logger, allowLive bool) *progressPrinter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &progressPrinter{
		out:     out,
		logger:  logger,
		live:    allowLive && isTerminal(out),
		sampler: logging.NewProgressSampler(10),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// callback adapts the printer to the pipeline progress hook for one chapter.
func (p *progressPrinter) callback(label string) pipeline.ProgressFunc {
	return func(taskID, message string, percent float64, currentStep, totalSteps int, stepName string) {
		p.report(label, taskID, message, percent, currentStep, totalSteps, stepName)
	}
}

func (p *progressPrinter) report(label, taskID, message string, percent float64, currentStep, totalSteps int, stepName string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.live {
		line := fmt.Sprintf("%s [%d/%d] %5.1f%% %s", label, currentStep, totalSteps, percent, message)
		line = textutil.Truncate(line, progressLineWidth)
		fmt.Fprintf(p.out, "\r%-*s", progressLineWidth, line)
		p.written = true
		return
	}
	if !p.sampler.ShouldLog(taskID, stepName, percent) {
		return
	}
	p.logger.Info("analysis progress",
		logging.String("chapter", label),
		logging.String(logging.FieldProgressStep, strings.TrimSpace(stepName)),
		logging.Float64(logging.FieldProgressPercent, percent),
		logging.String(logging.FieldProgressMessage, message),
	)
}

// finish ends the live line so later output starts on a fresh row.
func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live && p.written {
		fmt.Fprintln(p.out)
		p.written = false
	}
}
