package config

const (
	defaultDataDir            = "~/.local/share/catalogd"
	defaultLogDir             = "~/.local/share/catalogd/logs"
	defaultInboxDir           = "~/.local/share/catalogd/inbox"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultMatchThreshold     = 40
	defaultMatchLimit         = 10
	defaultMatchPoolLimit     = 100
	defaultInboxPollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "deepseek/deepseek-chat"
	defaultLLMTimeoutSeconds  = 60
	defaultNtfyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			InboxDir: defaultInboxDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Matching: Matching{
			Threshold: defaultMatchThreshold,
			Limit:     defaultMatchLimit,
			PoolLimit: defaultMatchPoolLimit,
		},
		Workflow: Workflow{
			InboxPollInterval:  defaultInboxPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Review:         true,
			Runs:           true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
