package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file, applies defaults, and
// validates. A directory path resolves to blockeval.yaml inside it.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, "blockeval.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but blockeval.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Apply environment variable interpolation
	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DiscoverConfigPath finds the config file by checking standard locations.
// Priority order: $BLOCKEVAL_CONFIG, ~/.config/blockeval/blockeval.yaml,
// /etc/blockeval/blockeval.yaml, ./blockeval.yaml.
func DiscoverConfigPath() (string, error) {
	if p := os.Getenv("BLOCKEVAL_CONFIG"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".config", "blockeval", "blockeval.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath, nil
		}
	}

	systemPath := "/etc/blockeval/blockeval.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath, nil
	}

	localPath := "./blockeval.yaml"
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	return "", fmt.Errorf("no config found (checked: $BLOCKEVAL_CONFIG, ~/.config/blockeval, /etc/blockeval, ./blockeval.yaml)")
}

// interpolateEnv replaces ${VAR} with the environment value. Unset variables
// interpolate to the empty string.
func interpolateEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// applyDefaults fills zero-valued fields from Defaults.
func applyDefaults(cfg *Config) {
	def := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = def.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = def.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = def.Service.LogFormat
	}

	if cfg.Journal.Path == "" {
		cfg.Journal.Path = def.Journal.Path
	}
	if cfg.Journal.Retention == 0 {
		cfg.Journal.Retention = def.Journal.Retention
	}

	if cfg.Workdir.CleanupOlderThan == 0 {
		cfg.Workdir.CleanupOlderThan = def.Workdir.CleanupOlderThan
	}

	if cfg.Session.Backend == "" {
		cfg.Session.Backend = def.Session.Backend
	}
	if cfg.Session.TargetPrefix == "" {
		cfg.Session.TargetPrefix = def.Session.TargetPrefix
	}

	if cfg.Watch.Backend == "" {
		cfg.Watch.Backend = def.Watch.Backend
	}
	if cfg.Watch.PollInterval == 0 {
		cfg.Watch.PollInterval = def.Watch.PollInterval
	}

	if cfg.Eval.MaxLineLength == 0 {
		cfg.Eval.MaxLineLength = def.Eval.MaxLineLength
	}
	if cfg.Eval.WaitTimeout == 0 {
		cfg.Eval.WaitTimeout = def.Eval.WaitTimeout
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = def.API.Listen
	}
}

func validate(cfg *Config) error {
	switch cfg.Service.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("service.log_level must be one of debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	switch cfg.Service.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	switch cfg.Session.Backend {
	case "tmux":
	default:
		return fmt.Errorf("session.backend must be tmux (got %q)", cfg.Session.Backend)
	}

	switch cfg.Watch.Backend {
	case "fsnotify", "poll":
	default:
		return fmt.Errorf("watch.backend must be fsnotify or poll (got %q)", cfg.Watch.Backend)
	}
	if cfg.Watch.Backend == "poll" && cfg.Watch.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("watch.poll_interval must be at least 10ms (got %s)", cfg.Watch.PollInterval)
	}

	if cfg.Eval.MaxLineLength < 0 {
		return fmt.Errorf("eval.max_line_length must not be negative")
	}
	if cfg.Eval.WaitTimeout < 0 {
		return fmt.Errorf("eval.wait_timeout must not be negative")
	}

	if cfg.API.Enabled {
		if cfg.API.Listen == "" {
			return fmt.Errorf("api.listen is required when api.enabled is true")
		}
		if cfg.API.Auth.APIKey == "" && len(cfg.API.Auth.Tokens) == 0 {
			return fmt.Errorf("api.auth.api_key or api.auth.tokens is required when api.enabled is true")
		}
		for i, tok := range cfg.API.Auth.Tokens {
			if tok.Token == "" {
				return fmt.Errorf("api.auth.tokens[%d].token is empty", i)
			}
			if len(tok.Scopes) == 0 {
				return fmt.Errorf("api.auth.tokens[%d] has no scopes", i)
			}
		}
	}

	return nil
}
