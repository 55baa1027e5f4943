// Package config provides hierarchical configuration loading for the
// Overseer execution core. Precedence: defaults < YAML file < environment
// variables.
package config

import "time"

// Config holds all runtime configuration for the Overseer service.
type Config struct {
	Server    Server      `yaml:"server"`
	NATS      NATS        `yaml:"nats"`
	Logging   Logging     `yaml:"logging"`
	Scheduler Scheduler   `yaml:"scheduler"`
	Shell     Shell       `yaml:"shell"`
	Policy    Policy      `yaml:"policy"`
	Delegate  Delegate    `yaml:"delegate"`
	Model     Model       `yaml:"model"`
	Breaker   Breaker     `yaml:"breaker"`
	Cache     Cache       `yaml:"cache"`
	Telemetry Telemetry   `yaml:"telemetry"`
	MCP       []MCPServer `yaml:"mcp"`
	Agents    Agents      `yaml:"agents"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// NATS holds the relay connection. An empty URL disables the relay.
type NATS struct {
	URL string `yaml:"url"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Scheduler holds tool-call scheduling configuration.
type Scheduler struct {
	MaxParallel     int           `yaml:"max_parallel"`
	ApprovalTimeout time.Duration `yaml:"approval_timeout"`
	ToolDeadline    time.Duration `yaml:"tool_deadline"`
}

// Shell holds shell tool configuration.
type Shell struct {
	WorkDir        string `yaml:"work_dir"`
	MaxOutputBytes int    `yaml:"max_output_bytes"`
	AlwaysConfirm  bool   `yaml:"always_confirm"`
}

// Policy holds rule-set selection.
type Policy struct {
	// DefaultPreset names the built-in rule set used when CustomDir
	// provides none.
	DefaultPreset string `yaml:"default_preset"`

	// CustomDir is scanned for YAML rule-set files.
	CustomDir string `yaml:"custom_dir"`
}

// Delegate holds sub-agent delegation configuration.
type Delegate struct {
	ApprovalTimeout time.Duration `yaml:"approval_timeout"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	RemoteToken     string        `yaml:"remote_token"`
}

// Model holds the LiteLLM proxy connection used by local sub-agent
// loops.
type Model struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// Breaker holds circuit breaker configuration for remote agent calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Cache holds the policy decision cache size. Zero disables the cache.
type Cache struct {
	MaxEntries int64 `yaml:"max_entries"`
}

// Telemetry holds the OTLP collector endpoint. Empty disables export.
type Telemetry struct {
	Endpoint string `yaml:"endpoint"`
}

// MCPServer describes one MCP server to connect at startup.
type MCPServer struct {
	Name      string            `yaml:"name"`
	Transport string            `yaml:"transport"`
	Command   string            `yaml:"command,omitempty"`
	Args      []string          `yaml:"args,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
	URL       string            `yaml:"url,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
}

// Agents points at sub-agent definition files.
type Agents struct {
	// Dir is scanned for YAML agent definition files.
	Dir string `yaml:"dir"`
}

// Defaults returns a Config with sensible default values for local use.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "overseer",
		},
		Scheduler: Scheduler{
			MaxParallel:     4,
			ApprovalTimeout: 60 * time.Second,
			ToolDeadline:    5 * time.Minute,
		},
		Shell: Shell{
			MaxOutputBytes: 256 * 1024,
		},
		Policy: Policy{
			DefaultPreset: "safe-autonomy",
		},
		Delegate: Delegate{
			ApprovalTimeout: 60 * time.Second,
			PollInterval:    500 * time.Millisecond,
		},
		Model: Model{
			URL: "http://localhost:4000",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Cache: Cache{
			MaxEntries: 4096,
		},
	}
}
