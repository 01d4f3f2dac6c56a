// Package config loads the per-process configuration for an ownai daemon:
// the embedded-store root, default memory budgets, sandbox limits, and
// per-provider default models.
package config

// Config is the top-level configuration for an ownai process. It is small
// relative to a multi-channel platform's config because a single instance
// is scoped to one user, one provider, and local disk.
type Config struct {
	Version   int             `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Memory    MemoryConfig    `yaml:"memory"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Providers ProvidersConfig `yaml:"providers"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the process's own listener, used by the canvas
// program host that `serve` starts.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// AppDir is not read: the ~/.ownai root comes from $OWNAI_HOME or,
	// when that is unset, the platform home directory (see paths.AppDir).
	AppDir string `yaml:"app_dir"`
}

// MemoryConfig configures default budgets shared by every instance unless
// overridden on a per-instance basis.
type MemoryConfig struct {
	// WorkingMemoryMaxTokens is the default rolling-window budget (§4.E).
	WorkingMemoryMaxTokens int `yaml:"working_memory_max_tokens"`
	// EmbeddingDimension is the fixed vector width for long-term memory (§4.F).
	EmbeddingDimension int `yaml:"embedding_dimension"`
	// RecallLimit and RecallMinImportance are the context builder defaults (§4.I).
	RecallLimit         int     `yaml:"recall_limit"`
	RecallMinImportance float32 `yaml:"recall_min_importance"`
	// RecentSummaryLimit bounds how many summaries the context builder appends.
	RecentSummaryLimit int `yaml:"recent_summary_limit"`
}

// SandboxConfig lists the per-script resource limits of §4.J. The
// sandbox does not read these fields: it applies sandbox.DefaultLimits,
// whose values match the defaults below.
type SandboxConfig struct {
	MaxOperations  int64 `yaml:"max_operations"`
	MaxStringSize  int   `yaml:"max_string_size"`
	MaxArraySize   int   `yaml:"max_array_size"`
	MaxMapSize     int   `yaml:"max_map_size"`
	HTTPTimeoutSec int   `yaml:"http_timeout_seconds"`
}

// ProvidersConfig configures default models per provider family, used when
// an instance doesn't specify one explicitly (§4.M).
type ProvidersConfig struct {
	Anthropic ProviderDefaults `yaml:"anthropic"`
	OpenAI    ProviderDefaults `yaml:"openai"`
	Ollama    ProviderDefaults `yaml:"ollama"`
	// MaxTurns is the hard cap on model<->tool round-trips per turn (§4.M).
	MaxTurns int `yaml:"max_turns"`
}

// ProviderDefaults holds the default model and optional base URL for a provider family.
type ProviderDefaults struct {
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url"`
}

// SchedulerConfig configures the cron engine shared by every instance (§4.P).
type SchedulerConfig struct {
	// TickIntervalSeconds is not read: the scheduler runs on the cron
	// library's own timer.
	TickIntervalSeconds int `yaml:"tick_interval_seconds"`
}

// LoggingConfig holds logging settings. It is not read: cmd/ownaid
// builds a text slog handler at info level.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Defaults returns the configuration used when no file is supplied,
// matching the literal defaults named throughout spec §4.
func Defaults() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8765,
		},
		Memory: MemoryConfig{
			WorkingMemoryMaxTokens: 50_000,
			EmbeddingDimension:     384,
			RecallLimit:            5,
			RecallMinImportance:    0.5,
			RecentSummaryLimit:     3,
		},
		Sandbox: SandboxConfig{
			MaxOperations:  100_000,
			MaxStringSize:  1 << 20,
			MaxArraySize:   10_000,
			MaxMapSize:     5_000,
			HTTPTimeoutSec: 30,
		},
		Providers: ProvidersConfig{
			Anthropic: ProviderDefaults{DefaultModel: "claude-sonnet-4-5-20250929"},
			OpenAI:    ProviderDefaults{DefaultModel: "gpt-5.2-2025-12-11"},
			Ollama:    ProviderDefaults{},
			MaxTurns:  25,
		},
		Scheduler: SchedulerConfig{
			TickIntervalSeconds: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
