package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"voicecast/internal/checkpoint"
	"voicecast/internal/config"
	"voicecast/internal/inference"
	"voicecast/internal/logging"
	"voicecast/internal/pipeline"
	"voicecast/internal/preflight"
	"voicecast/internal/results"
	"voicecast/internal/speakers"
)

// newInferenceClient builds the backend used by analysis commands. Tests
// replace it with a scripted client.
var newInferenceClient = inference.New

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	envFlag      *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	catalogOnce sync.Once
	catalog     *speakers.Catalog
}

func newCommandContext(configFlag, logLevelFlag, envFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		envFlag:      envFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := c.loadEnvFile(); err != nil {
			c.configErr = err
			return
		}
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
				if err := cfg.Validate(); err != nil {
					c.configErr = err
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// loadEnvFile exports the env file's variables without overriding ones that
// are already set. A missing file is not an error.
func (c *commandContext) loadEnvFile() error {
	if c.envFlag == nil {
		return nil
	}
	path := strings.TrimSpace(*c.envFlag)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, uuid.NewString())
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) checkpointStore(logger *slog.Logger) (*checkpoint.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return checkpoint.NewStore(cfg.Paths.CheckpointDir,
		checkpoint.WithTTL(cfg.CheckpointTTL()),
		checkpoint.WithLogger(logger),
	)
}

func (c *commandContext) withResults(fn func(*results.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := results.Open(cfg.Paths.ResultsDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// analysisRuntime bundles everything one analyze invocation needs.
type analysisRuntime struct {
	cfg          *config.Config
	logger       *slog.Logger
	orchestrator *pipeline.Orchestrator
	catalog      *speakers.Catalog
	results      *results.Store
}

func (r *analysisRuntime) Close() error {
	if r == nil || r.results == nil {
		return nil
	}
	return r.results.Close()
}

func (c *commandContext) openRuntime(ctx context.Context) (*analysisRuntime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if failed := preflight.Failed(preflight.Directories(cfg)); len(failed) > 0 {
		return nil, fmt.Errorf("%s: %s", failed[0].Name, failed[0].Detail)
	}
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}

	client, err := newInferenceClient(ctx, cfg.GetLLM())
	if err != nil {
		return nil, fmt.Errorf("init inference client: %w", err)
	}
	store, err := c.checkpointStore(logger)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}
	resultStore, err := results.Open(cfg.Paths.ResultsDB)
	if err != nil {
		return nil, err
	}

	matcher := newMatcher(cfg, c.speakerCatalog())
	orchestrator := pipeline.New(client, store, matcher,
		pipeline.WithConfig(cfg),
		pipeline.WithLogger(logger),
	)
	return &analysisRuntime{
		cfg:          cfg,
		logger:       logger,
		orchestrator: orchestrator,
		catalog:      matcher.Catalog(),
		results:      resultStore,
	}, nil
}

// speakerCatalog builds the read-only catalog once per process.
func (c *commandContext) speakerCatalog() *speakers.Catalog {
	c.catalogOnce.Do(func() {
		c.catalog = speakers.NewCatalog()
	})
	return c.catalog
}

func newMatcher(cfg *config.Config, catalog *speakers.Catalog) *speakers.Matcher {
	if cfg != nil && cfg.Speakers.Deterministic {
		return speakers.NewMatcher(catalog, speakers.WithSeed(uint64(cfg.Speakers.TieBreakSeed)))
	}
	return speakers.NewMatcher(catalog)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
