package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voicecast/internal/config"
	"voicecast/internal/extraction"
	"voicecast/internal/inference"
	"voicecast/internal/testsupport"
)

const (
	aliceCharacters = `{"characters":[{"name":"Alice","traits":["female","young"]}]}`
	aliceDialogs    = `{"dialogs":[{"speaker":"Alice","text":"What a lovely day","emotion":"happy","intensity":0.8}]}`
	aliceVoice      = `{"traits":["cheerful"],"voice_profile":{"pitch":1.15,"speed":1.05,"energy":0.9,"gender":"female","age":"young","tone":"bright","speaker_id":20,"emotion_bias":{"happy":0.7}}}`
)

const aliceText = "Alice wandered into the garden on a bright morning.\n\n" +
	"\"What a lovely day,\" Alice said with a smile.\n\n" +
	"Alice sat beneath the old oak tree\nand watched the clouds.\n"

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	llm        *testsupport.FakeLLM
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "voicecast.toml")
	writeTestConfig(t, configPath, cfg)

	llm := testsupport.NewFakeLLM().
		On(extraction.CharacterSystemPrompt, testsupport.Static(aliceCharacters)).
		On(extraction.DialogSystemPrompt, testsupport.Static(aliceDialogs)).
		On(extraction.VoiceSystemPrompt, testsupport.Static(aliceVoice))

	previous := newInferenceClient
	newInferenceClient = func(context.Context, config.LLMConfig) (inference.Client, error) {
		return llm, nil
	}
	t.Cleanup(func() { newInferenceClient = previous })

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		llm:        llm,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--env-file", ""}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstate_dir = %q\ncheckpoint_dir = %q\nlog_dir = %q\nresults_db = %q\n\n"+
			"[llm]\nprovider = \"openrouter\"\napi_key = %q\nmodel = \"test-model\"\n\n"+
			"[speakers]\ndeterministic = true\ntie_break_seed = 1\n\n"+
			"[logging]\nlevel = \"error\"\n",
		cfg.Paths.StateDir,
		cfg.Paths.CheckpointDir,
		cfg.Paths.LogDir,
		cfg.Paths.ResultsDB,
		cfg.LLM.APIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeChapterFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write chapter: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
