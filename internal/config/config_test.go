package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"voicecast/internal/config"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"VOICECAST_LLM_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "router-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	wantCheckpoints := filepath.Join(tempHome, ".local", "share", "voicecast", "checkpoints")
	if cfg.Paths.CheckpointDir != wantCheckpoints {
		t.Fatalf("unexpected checkpoint dir: got %q want %q", cfg.Paths.CheckpointDir, wantCheckpoints)
	}
	if cfg.LLM.APIKey != "router-key" {
		t.Fatalf("expected key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Provider != config.ProviderOpenRouter {
		t.Fatalf("unexpected provider %q", cfg.LLM.Provider)
	}
	if cfg.LLM.BaseURL == "" || cfg.LLM.Model == "" {
		t.Fatalf("expected provider defaults, got %+v", cfg.LLM)
	}
	if cfg.CheckpointTTL() != 24*time.Hour {
		t.Fatalf("unexpected checkpoint ttl %s", cfg.CheckpointTTL())
	}
	if cfg.Analysis.MaxSegmentChars != config.Default().Analysis.MaxSegmentChars {
		t.Fatalf("unexpected segment size %d", cfg.Analysis.MaxSegmentChars)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GEMINI_API_KEY", "gem-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "voicecast.toml")
	content := `
[paths]
checkpoint_dir = "~/cp"

[llm]
provider = "Gemini"

[analysis]
dialog_max_tokens = 900
max_segment_chars = 1500
workers = 4

[speakers]
deterministic = true
tie_break_seed = 42

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected explicit config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.CheckpointDir != filepath.Join(tempHome, "cp") {
		t.Fatalf("unexpected checkpoint dir %q", cfg.Paths.CheckpointDir)
	}
	if cfg.LLM.Provider != config.ProviderGemini || cfg.LLM.APIKey != "gem-key" {
		t.Fatalf("unexpected llm settings %+v", cfg.LLM)
	}
	if cfg.LLM.Model == "" {
		t.Fatal("expected gemini default model")
	}
	stage := cfg.DialogStage()
	if stage.MaxTokens != 900 || stage.MaxSegmentChars != 1500 {
		t.Fatalf("unexpected dialog stage settings %+v", stage)
	}
	if !cfg.Speakers.Deterministic || cfg.Speakers.TieBreakSeed != 42 {
		t.Fatalf("unexpected speakers settings %+v", cfg.Speakers)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings %+v", cfg.Logging)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "mystery"
	cfg.LLM.Model = "m"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "llm.provider") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestValidateRejectsTinySegments(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Model = "m"
	cfg.Analysis.MaxSegmentChars = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected segment size error")
	}
}

func TestRequireLLMNamesProviderVariable(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = config.ProviderOpenAI
	err := cfg.RequireLLM()
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected OPENAI_API_KEY hint, got %v", err)
	}
	cfg.LLM.APIKey = "k"
	if err := cfg.RequireLLM(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid toml: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.CheckpointDir = filepath.Join(base, "state", "cp")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ResultsDB = filepath.Join(base, "db", "results.db")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CheckpointDir, cfg.Paths.LogDir, filepath.Join(base, "db")} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", dir)
		}
	}
}
