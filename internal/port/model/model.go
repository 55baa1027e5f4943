// Package model defines the language-model client boundary. Prompt
// construction and the concrete client live outside this core; the local
// sub-agent loop only needs completions that may request tool calls.
package model

import "context"

// Message is one entry of a conversation transcript.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant", "tool"
	Content string `json:"content"`
}

// ToolRequest is a tool invocation the model asked for.
type ToolRequest struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Turn is the model's response to one completion call.
type Turn struct {
	Text         string        `json:"text,omitempty"`
	ToolRequests []ToolRequest `json:"tool_requests,omitempty"`
}

// Client produces completions for a transcript.
type Client interface {
	Complete(ctx context.Context, model string, messages []Message) (*Turn, error)
}
