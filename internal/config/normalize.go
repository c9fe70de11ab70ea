package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeAnalysis()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CheckpointDir) == "" {
		c.Paths.CheckpointDir = defaultCheckpointDir
	}
	if c.Paths.CheckpointDir, err = expandPath(c.Paths.CheckpointDir); err != nil {
		return fmt.Errorf("paths.checkpoint_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ResultsDB) == "" {
		c.Paths.ResultsDB = defaultResultsDB
	}
	if c.Paths.ResultsDB, err = expandPath(c.Paths.ResultsDB); err != nil {
		return fmt.Errorf("paths.results_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultProvider
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)

	switch c.LLM.Provider {
	case ProviderOpenRouter:
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = defaultOpenRouterBaseURL
		}
		if c.LLM.Model == "" {
			c.LLM.Model = defaultOpenRouterModel
		}
	case ProviderOpenAI:
		if c.LLM.Model == "" {
			c.LLM.Model = defaultOpenAIModel
		}
	case ProviderGemini:
		if c.LLM.Model == "" {
			c.LLM.Model = defaultGeminiModel
		}
	}

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = lookupFirstEnv(apiKeyEnvVars(c.LLM.Provider)...)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = defaultLLMRetryAttempts
	}
}

// apiKeyEnvVars lists the environment fallbacks for a provider, most specific last.
func apiKeyEnvVars(provider string) []string {
	vars := []string{"VOICECAST_LLM_API_KEY"}
	switch provider {
	case ProviderOpenRouter:
		vars = append(vars, "OPENROUTER_API_KEY")
	case ProviderOpenAI:
		vars = append(vars, "OPENAI_API_KEY")
	case ProviderGemini:
		vars = append(vars, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	return vars
}

func lookupFirstEnv(names ...string) string {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func (c *Config) normalizeAnalysis() {
	a := &c.Analysis
	if a.CharacterMaxTokens <= 0 {
		a.CharacterMaxTokens = defaultCharacterMaxTokens
	}
	if a.DialogMaxTokens <= 0 {
		a.DialogMaxTokens = defaultDialogMaxTokens
	}
	if a.VoiceMaxTokens <= 0 {
		a.VoiceMaxTokens = defaultVoiceMaxTokens
	}
	if a.MaxSegmentChars <= 0 {
		a.MaxSegmentChars = defaultMaxSegmentChars
	}
	if a.CheckpointTTLHours <= 0 {
		a.CheckpointTTLHours = defaultCheckpointTTLHours
	}
	if a.Workers <= 0 {
		a.Workers = 1
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
