// Package mcp connects to Model Context Protocol servers and exposes
// their tools through the tool port. Each remote tool registers under
// "mcp:<server>:<tool>", which keeps policy rules like "mcp:filesystem:*"
// straightforward.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcpprotocol "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/Overseer/internal/domain"
	"github.com/Strob0t/Overseer/internal/domain/toolcall"
	"github.com/Strob0t/Overseer/internal/port/tool"
)

// Transport selects how to reach an MCP server.
type Transport string

const (
	TransportStdio          Transport = "stdio"
	TransportSSE            Transport = "sse"
	TransportStreamableHTTP Transport = "streamable-http"
)

// ServerConfig describes one MCP server connection.
type ServerConfig struct {
	Name      string            `json:"name" yaml:"name"`
	Transport Transport         `json:"transport" yaml:"transport"`
	Command   string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args      []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	URL       string            `json:"url,omitempty" yaml:"url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Validate checks the transport-specific required fields.
func (c *ServerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("mcp server name is required: %w", domain.ErrValidation)
	}
	switch c.Transport {
	case TransportStdio:
		if c.Command == "" {
			return fmt.Errorf("mcp server %s: stdio transport requires a command: %w", c.Name, domain.ErrValidation)
		}
	case TransportSSE, TransportStreamableHTTP:
		if c.URL == "" {
			return fmt.Errorf("mcp server %s: %s transport requires a url: %w", c.Name, c.Transport, domain.ErrValidation)
		}
	default:
		return fmt.Errorf("mcp server %s: unsupported transport %q: %w", c.Name, c.Transport, domain.ErrValidation)
	}
	return nil
}

// Provider is a live connection to one MCP server.
type Provider struct {
	name   string
	client mcpclient.MCPClient
	log    *slog.Logger
}

// NewFromClient wraps an already-started client. Connect is the normal
// entry point; this one exists for in-process servers.
func NewFromClient(name string, c mcpclient.MCPClient, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.Default()
	}
	return &Provider{name: name, client: c, log: log}
}

// Connect dials the server and performs the initialize handshake.
func Connect(ctx context.Context, cfg ServerConfig, log *slog.Logger) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := createClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("mcp server %s: create client: %w", cfg.Name, err)
	}

	p := NewFromClient(cfg.Name, client, log)
	if err := p.initialize(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return p, nil
}

func (p *Provider) initialize(ctx context.Context) error {
	initReq := mcpprotocol.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpprotocol.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpprotocol.Implementation{
		Name:    "overseer",
		Version: "1.0.0",
	}
	res, err := p.client.Initialize(ctx, initReq)
	if err != nil {
		return fmt.Errorf("mcp server %s: initialize: %w", p.name, err)
	}
	p.log.Info("mcp server connected",
		"server", p.name,
		"remote_name", res.ServerInfo.Name,
		"remote_version", res.ServerInfo.Version,
	)
	return nil
}

// RegisterTools lists the server's tools and registers each one. It
// returns how many tools were registered.
func (p *Provider) RegisterTools(ctx context.Context, reg *tool.Registry) (int, error) {
	res, err := p.client.ListTools(ctx, mcpprotocol.ListToolsRequest{})
	if err != nil {
		return 0, fmt.Errorf("mcp server %s: list tools: %w", p.name, err)
	}
	for i := range res.Tools {
		t := &res.Tools[i]
		reg.Register(&remoteTool{
			provider:    p,
			remoteName:  t.Name,
			fqName:      fmt.Sprintf("mcp:%s:%s", p.name, t.Name),
			description: t.Description,
			required:    t.InputSchema.Required,
		})
	}
	return len(res.Tools), nil
}

// Close shuts the connection down.
func (p *Provider) Close() error {
	return p.client.Close()
}

func createClient(cfg ServerConfig) (mcpclient.MCPClient, error) {
	switch cfg.Transport {
	case TransportStdio:
		return mcpclient.NewStdioMCPClient(cfg.Command, envSlice(cfg.Env), cfg.Args...)

	case TransportSSE:
		var opts []transport.ClientOption
		if len(cfg.Headers) > 0 {
			opts = append(opts, transport.WithHeaders(cfg.Headers))
		}
		return mcpclient.NewSSEMCPClient(cfg.URL, opts...)

	default:
		var opts []transport.StreamableHTTPCOption
		if len(cfg.Headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(cfg.Headers))
		}
		return mcpclient.NewStreamableHttpClient(cfg.URL, opts...)
	}
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

// remoteTool adapts one MCP tool to the tool port.
type remoteTool struct {
	provider    *Provider
	remoteName  string
	fqName      string
	description string
	required    []string
}

// Name returns "mcp:<server>:<tool>".
func (t *remoteTool) Name() string { return t.fqName }

// Build checks the schema's required fields are present.
func (t *remoteTool) Build(args map[string]any) (tool.Invocation, error) {
	var missing []string
	for _, field := range t.required {
		if _, ok := args[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing required arguments %s: %w",
			t.fqName, strings.Join(missing, ", "), domain.ErrValidation)
	}
	return &remoteInvocation{tool: t, args: args}, nil
}

type remoteInvocation struct {
	tool *remoteTool
	args map[string]any
}

// ShouldConfirmExecute declines the extra gate; MCP tools are governed by
// policy rules on their fully qualified names.
func (i *remoteInvocation) ShouldConfirmExecute(context.Context) (*tool.Confirmation, error) {
	return nil, nil
}

// Description names the remote tool.
func (i *remoteInvocation) Description() string {
	if i.tool.description != "" {
		return fmt.Sprintf("%s: %s", i.tool.fqName, i.tool.description)
	}
	return i.tool.fqName
}

// Execute calls the remote tool and flattens its text content.
func (i *remoteInvocation) Execute(ctx context.Context) (*toolcall.Result, error) {
	req := mcpprotocol.CallToolRequest{}
	req.Params.Name = i.tool.remoteName
	req.Params.Arguments = i.args

	res, err := i.tool.provider.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: call: %w", i.tool.fqName, err)
	}

	var b strings.Builder
	for _, c := range res.Content {
		if tc, ok := mcpprotocol.AsTextContent(c); ok {
			b.WriteString(tc.Text)
		}
	}
	if res.IsError {
		return nil, fmt.Errorf("%s: %s", i.tool.fqName, b.String())
	}
	return &toolcall.Result{Content: b.String()}, nil
}
