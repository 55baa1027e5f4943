package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "overseer.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "OVERSEER_PORT")
	setString(&cfg.Server.CORSOrigin, "OVERSEER_CORS_ORIGIN")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "OVERSEER_LOG_LEVEL")
	setString(&cfg.Logging.Service, "OVERSEER_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "OVERSEER_LOG_ASYNC")
	setInt(&cfg.Scheduler.MaxParallel, "OVERSEER_MAX_PARALLEL")
	setDuration(&cfg.Scheduler.ApprovalTimeout, "OVERSEER_APPROVAL_TIMEOUT")
	setDuration(&cfg.Scheduler.ToolDeadline, "OVERSEER_TOOL_DEADLINE")
	setString(&cfg.Shell.WorkDir, "OVERSEER_SHELL_WORKDIR")
	setInt(&cfg.Shell.MaxOutputBytes, "OVERSEER_SHELL_MAX_OUTPUT")
	setBool(&cfg.Shell.AlwaysConfirm, "OVERSEER_SHELL_ALWAYS_CONFIRM")
	setString(&cfg.Policy.DefaultPreset, "OVERSEER_POLICY_PRESET")
	setString(&cfg.Policy.CustomDir, "OVERSEER_POLICY_DIR")
	setDuration(&cfg.Delegate.ApprovalTimeout, "OVERSEER_DELEGATE_APPROVAL_TIMEOUT")
	setDuration(&cfg.Delegate.PollInterval, "OVERSEER_DELEGATE_POLL_INTERVAL")
	setString(&cfg.Delegate.RemoteToken, "OVERSEER_DELEGATE_TOKEN")
	setString(&cfg.Model.URL, "OVERSEER_MODEL_URL")
	setString(&cfg.Model.APIKey, "OVERSEER_MODEL_API_KEY")
	setInt(&cfg.Breaker.MaxFailures, "OVERSEER_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "OVERSEER_BREAKER_TIMEOUT")
	setInt64(&cfg.Cache.MaxEntries, "OVERSEER_CACHE_MAX_ENTRIES")
	setString(&cfg.Telemetry.Endpoint, "OVERSEER_OTLP_ENDPOINT")
	setString(&cfg.Agents.Dir, "OVERSEER_AGENTS_DIR")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Scheduler.MaxParallel < 1 {
		return errors.New("scheduler.max_parallel must be >= 1")
	}
	if cfg.Scheduler.ApprovalTimeout <= 0 {
		return errors.New("scheduler.approval_timeout must be positive")
	}
	if cfg.Scheduler.ToolDeadline <= 0 {
		return errors.New("scheduler.tool_deadline must be positive")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
