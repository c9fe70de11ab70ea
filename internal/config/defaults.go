package config

const (
	defaultConfigPath    = "~/.config/voicecast/config.toml"
	defaultStateDir      = "~/.local/share/voicecast"
	defaultCheckpointDir = "~/.local/share/voicecast/checkpoints"
	defaultLogDir        = "~/.local/share/voicecast/logs"
	defaultResultsDB     = "~/.local/share/voicecast/results.db"

	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"

	defaultProvider           = ProviderOpenRouter
	defaultOpenRouterBaseURL  = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel    = "google/gemini-2.5-flash"
	defaultOpenAIModel        = "gpt-4o-mini"
	defaultGeminiModel        = "gemini-2.5-flash"
	defaultLLMReferer         = "https://github.com/voicecast/voicecast"
	defaultLLMTitle           = "voicecast"
	defaultLLMTimeoutSeconds  = 60
	defaultLLMRetryAttempts   = 4
	defaultCharacterMaxTokens = 1024
	defaultCharacterTemp      = 0.2
	defaultDialogMaxTokens    = 2048
	defaultDialogTemp         = 0.2
	defaultVoiceMaxTokens     = 512
	defaultVoiceTemp          = 0.4
	defaultMaxSegmentChars    = 4000
	defaultCheckpointTTLHours = 24
	defaultWorkers            = 2
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:      defaultStateDir,
			CheckpointDir: defaultCheckpointDir,
			LogDir:        defaultLogDir,
			ResultsDB:     defaultResultsDB,
		},
		LLM: LLM{
			Provider:       defaultProvider,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  defaultLLMRetryAttempts,
		},
		Analysis: Analysis{
			CharacterMaxTokens:   defaultCharacterMaxTokens,
			CharacterTemperature: defaultCharacterTemp,
			DialogMaxTokens:      defaultDialogMaxTokens,
			DialogTemperature:    defaultDialogTemp,
			VoiceMaxTokens:       defaultVoiceMaxTokens,
			VoiceTemperature:     defaultVoiceTemp,
			MaxSegmentChars:      defaultMaxSegmentChars,
			CheckpointTTLHours:   defaultCheckpointTTLHours,
			Workers:              defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
