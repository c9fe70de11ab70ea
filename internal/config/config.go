package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	StateDir      string `toml:"state_dir"`
	CheckpointDir string `toml:"checkpoint_dir"`
	LogDir        string `toml:"log_dir"`
	ResultsDB     string `toml:"results_db"`
}

// LLM contains the text-generation backend settings.
type LLM struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// Analysis contains per-stage generation limits and pipeline tuning.
type Analysis struct {
	CharacterMaxTokens   int     `toml:"character_max_tokens"`
	CharacterTemperature float64 `toml:"character_temperature"`
	DialogMaxTokens      int     `toml:"dialog_max_tokens"`
	DialogTemperature    float64 `toml:"dialog_temperature"`
	VoiceMaxTokens       int     `toml:"voice_max_tokens"`
	VoiceTemperature     float64 `toml:"voice_temperature"`
	MaxSegmentChars      int     `toml:"max_segment_chars"`
	CheckpointTTLHours   int     `toml:"checkpoint_ttl_hours"`
	Workers              int     `toml:"workers"`
}

// Speakers contains speaker matcher settings.
type Speakers struct {
	// Deterministic seeds the tie-break source with TieBreakSeed so repeated
	// runs cast the same voices.
	Deterministic bool  `toml:"deterministic"`
	TieBreakSeed  int64 `toml:"tie_break_seed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for voicecast.
//
// Configuration sections:
//   - Paths: state, checkpoint, and log directories plus the results database
//   - LLM: provider selection and connection settings
//   - Analysis: stage token limits, temperatures, segment size, checkpoint expiry
//   - Speakers: tie-break seeding for voice casting
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	LLM      LLM      `toml:"llm"`
	Analysis Analysis `toml:"analysis"`
	Speakers Speakers `toml:"speakers"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("voicecast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the state, checkpoint, and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.CheckpointDir, c.Paths.LogDir}
	if dbDir := filepath.Dir(c.Paths.ResultsDB); c.Paths.ResultsDB != "" {
		dirs = append(dirs, dbDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CheckpointTTL returns the checkpoint expiry as a duration.
func (c *Config) CheckpointTTL() time.Duration {
	return time.Duration(c.Analysis.CheckpointTTLHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig is the trimmed connection view consumed by inference backends.
type LLMConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	RetryAttempts  int
}

// GetLLM returns the LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:       strings.TrimSpace(c.LLM.Provider),
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
		RetryAttempts:  c.LLM.RetryAttempts,
	}
}

// StageSettings is the generation budget for one extraction stage.
type StageSettings struct {
	MaxTokens       int
	Temperature     float64
	MaxSegmentChars int
}

// CharacterStage returns the character discovery budget.
func (c *Config) CharacterStage() StageSettings {
	return StageSettings{c.Analysis.CharacterMaxTokens, c.Analysis.CharacterTemperature, c.Analysis.MaxSegmentChars}
}

// DialogStage returns the dialog attribution budget.
func (c *Config) DialogStage() StageSettings {
	return StageSettings{c.Analysis.DialogMaxTokens, c.Analysis.DialogTemperature, c.Analysis.MaxSegmentChars}
}

// VoiceStage returns the voice profile synthesis budget.
func (c *Config) VoiceStage() StageSettings {
	return StageSettings{c.Analysis.VoiceMaxTokens, c.Analysis.VoiceTemperature, c.Analysis.MaxSegmentChars}
}
