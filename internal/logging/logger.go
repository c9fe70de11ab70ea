package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"voicecast/internal/config"
)

// LogFileName is the file written under the configured log directory.
const LogFileName = "voicecast.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Outputs lists destinations: "stdout", "stderr" or a file path that is
	// appended to. Empty means stderr.
	Outputs   []string
	AddSource bool
	// SessionID, when set, is attached to every record as session_id.
	SessionID string
}

// New constructs a slog logger using the provided options. Source locations
// are included at debug level or when AddSource is set.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))
	addSource := opts.AddSource || levelVar.Level() <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != "" && format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	out, err := openOutputs(opts.Outputs)
	if err != nil {
		return nil, err
	}
	var handler slog.Handler
	if format == "json" {
		if handler, err = newJSONHandler(out, levelVar, addSource); err != nil {
			return nil, err
		}
	} else {
		handler = newPrettyHandler(out, levelVar, addSource)
	}
	return slog.New(newRunHandler(handler, strings.TrimSpace(opts.SessionID))), nil
}

// NewFromConfig creates a logger using application config defaults. Records
// go to stderr and, when a log directory is configured, to voicecast.log.
func NewFromConfig(cfg *config.Config, sessionID string) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{SessionID: sessionID})
	}
	outputs := []string{"stderr"}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		outputs = append(outputs, filepath.Join(dir, LogFileName))
	}
	return New(Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Outputs:   outputs,
		SessionID: sessionID,
	})
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openOutputs resolves each distinct destination once and fans records out
// to all of them.
func openOutputs(outputs []string) (io.Writer, error) {
	var writers []io.Writer
	var opened []string
	for _, dest := range outputs {
		dest = strings.TrimSpace(dest)
		if dest == "" || slices.Contains(opened, dest) {
			continue
		}
		opened = append(opened, dest)
		switch dest {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return nil, fmt.Errorf("ensure log directory: %w", err)
			}
			file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", dest, err)
			}
			writers = append(writers, file)
		}
	}
	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}
