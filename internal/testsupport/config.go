package testsupport

import (
	"path/filepath"
	"testing"

	"voicecast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.LLM.APIKey = "test"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.CheckpointDir = filepath.Join(base, "state", "checkpoints")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ResultsDB = filepath.Join(base, "state", "results.db")
	cfgVal.Speakers.Deterministic = true
	cfgVal.Speakers.TieBreakSeed = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAPIKey sets the LLM API key on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithSegmentChars overrides the segment size so small fixtures span several segments.
func WithSegmentChars(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.MaxSegmentChars = n
	}
}

// WithWorkers sets the chapter worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.Workers = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
