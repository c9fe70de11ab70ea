package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. A missing API key is not an
// error here; commands that need the backend check it via RequireLLM.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider must be one of %s, %s, %s (got %q)", ProviderOpenRouter, ProviderOpenAI, ProviderGemini, c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	for key, value := range map[string]float64{
		"analysis.character_temperature": c.Analysis.CharacterTemperature,
		"analysis.dialog_temperature":    c.Analysis.DialogTemperature,
		"analysis.voice_temperature":     c.Analysis.VoiceTemperature,
	} {
		if value < 0 || value > 2 {
			return fmt.Errorf("%s must be between 0 and 2", key)
		}
	}
	if c.Analysis.MaxSegmentChars < 200 {
		return errors.New("analysis.max_segment_chars must be at least 200")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
}

// RequireLLM reports whether the backend credentials are present.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	vars := apiKeyEnvVars(c.LLM.Provider)
	return fmt.Errorf("llm.api_key is required. Set %s or edit %s (create with 'voicecast config init')", vars[len(vars)-1], defaultPath)
}
