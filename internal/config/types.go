package config

import "time"

// Config represents the complete blockeval configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Journal JournalConfig `yaml:"journal"`
	Workdir WorkdirConfig `yaml:"workdir"`
	Session SessionConfig `yaml:"session"`
	Watch   WatchConfig   `yaml:"watch"`
	Eval    EvalConfig    `yaml:"eval"`
	API     APIConfig     `yaml:"api,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// JournalConfig defines the evaluation log database.
type JournalConfig struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

// WorkdirConfig defines where request files and sentinels live.
type WorkdirConfig struct {
	Path string `yaml:"path"`
	// CleanupOlderThan bounds the manual sweep of stalled request files.
	CleanupOlderThan time.Duration `yaml:"cleanup_older_than"`
}

// SessionConfig defines how text reaches the interpreter.
type SessionConfig struct {
	Backend      string `yaml:"backend"` // "tmux"
	TmuxPath     string `yaml:"tmux_path,omitempty"`
	TargetPrefix string `yaml:"target_prefix"`
}

// WatchConfig defines the completion-signal backend.
type WatchConfig struct {
	Backend      string        `yaml:"backend"` // "fsnotify" or "poll"
	PollInterval time.Duration `yaml:"poll_interval"`
}

// EvalConfig defines evaluation behavior.
type EvalConfig struct {
	MaxLineLength int           `yaml:"max_line_length"`
	WaitTimeout   time.Duration `yaml:"wait_timeout"`
	Debug         bool          `yaml:"debug"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	// APIKey is the legacy single bearer token (admin/full access).
	// Prefer Tokens for scoped access.
	APIKey string     `yaml:"api_key"`
	Tokens []APIToken `yaml:"tokens,omitempty"`
}

// APIToken defines a bearer token and its scopes.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

// ChecksumManifest is the .checksums file written by `blockeval config lock`.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// IntegrityResult reports a `config check` run.
type IntegrityResult struct {
	Passed   bool
	Warnings []string
	Errors   []string
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "blockeval",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Journal: JournalConfig{
			Path:      "./data/journal.db",
			Retention: 30 * 24 * time.Hour,
		},
		Workdir: WorkdirConfig{
			Path:             "",
			CleanupOlderThan: 24 * time.Hour,
		},
		Session: SessionConfig{
			Backend:      "tmux",
			TargetPrefix: "blockeval-",
		},
		Watch: WatchConfig{
			Backend:      "fsnotify",
			PollInterval: 200 * time.Millisecond,
		},
		Eval: EvalConfig{
			MaxLineLength: 12000,
			WaitTimeout:   10 * time.Second,
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
		},
	}
}
