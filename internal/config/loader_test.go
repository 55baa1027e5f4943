package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Scheduler.MaxParallel != 4 {
		t.Errorf("expected max_parallel 4, got %d", cfg.Scheduler.MaxParallel)
	}
	if cfg.Scheduler.ToolDeadline != 5*time.Minute {
		t.Errorf("expected tool deadline 5m, got %v", cfg.Scheduler.ToolDeadline)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Policy.DefaultPreset != "safe-autonomy" {
		t.Errorf("expected preset safe-autonomy, got %s", cfg.Policy.DefaultPreset)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
scheduler:
  max_parallel: 8
  approval_timeout: 90s
logging:
  level: "debug"
mcp:
  - name: filesystem
    transport: stdio
    command: mcp-fs
    args: ["--root", "/workspace"]
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Scheduler.MaxParallel != 8 {
		t.Errorf("expected max_parallel 8, got %d", cfg.Scheduler.MaxParallel)
	}
	if cfg.Scheduler.ApprovalTimeout != 90*time.Second {
		t.Errorf("expected approval timeout 90s, got %v", cfg.Scheduler.ApprovalTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if len(cfg.MCP) != 1 || cfg.MCP[0].Name != "filesystem" || cfg.MCP[0].Command != "mcp-fs" {
		t.Errorf("unexpected mcp servers: %+v", cfg.MCP)
	}
	// Unchanged fields keep defaults
	if cfg.Scheduler.ToolDeadline != 5*time.Minute {
		t.Errorf("expected default tool deadline, got %v", cfg.Scheduler.ToolDeadline)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("OVERSEER_PORT", "7070")
	t.Setenv("OVERSEER_MAX_PARALLEL", "16")
	t.Setenv("OVERSEER_LOG_LEVEL", "warn")
	t.Setenv("OVERSEER_TOOL_DEADLINE", "2m")
	t.Setenv("OVERSEER_SHELL_ALWAYS_CONFIRM", "true")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Scheduler.MaxParallel != 16 {
		t.Errorf("expected max_parallel 16, got %d", cfg.Scheduler.MaxParallel)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Scheduler.ToolDeadline != 2*time.Minute {
		t.Errorf("expected tool deadline 2m, got %v", cfg.Scheduler.ToolDeadline)
	}
	if !cfg.Shell.AlwaysConfirm {
		t.Error("expected shell.always_confirm true")
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server.port is required",
		},
		{
			name:   "zero max parallel",
			modify: func(c *Config) { c.Scheduler.MaxParallel = 0 },
			errMsg: "scheduler.max_parallel must be >= 1",
		},
		{
			name:   "zero approval timeout",
			modify: func(c *Config) { c.Scheduler.ApprovalTimeout = 0 },
			errMsg: "scheduler.approval_timeout must be positive",
		},
		{
			name:   "zero tool deadline",
			modify: func(c *Config) { c.Scheduler.ToolDeadline = 0 },
			errMsg: "scheduler.tool_deadline must be positive",
		},
		{
			name:   "zero breaker failures",
			modify: func(c *Config) { c.Breaker.MaxFailures = 0 },
			errMsg: "breaker.max_failures must be >= 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestLoadFromFullHierarchy(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "overseer.yaml")
	content := `
server:
  port: "9090"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OVERSEER_PORT", "7070")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	// ENV wins over YAML wins over defaults.
	if cfg.Server.Port != "7070" {
		t.Errorf("expected env override 7070, got %s", cfg.Server.Port)
	}
}
