// Package a2a provides a minimal client for the agent-to-agent task
// protocol used to delegate work to remote agents. A delegation is a
// task: it is submitted with a message, polled while working, and ends
// completed, failed or canceled; input-required pauses it until the
// caller sends a follow-up message.
package a2a

import "strings"

// TaskState is the lifecycle state of a remote task.
type TaskState string

const (
	TaskSubmitted     TaskState = "submitted"
	TaskWorking       TaskState = "working"
	TaskInputRequired TaskState = "input-required"
	TaskCompleted     TaskState = "completed"
	TaskFailed        TaskState = "failed"
	TaskCanceled      TaskState = "canceled"
)

// Terminal reports whether the state is final.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCanceled
}

// Part is one piece of message or artifact content.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextPart builds a plain text part.
func TextPart(text string) Part {
	return Part{Type: "text", Text: text}
}

// Message is a turn exchanged with the remote agent.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// UserMessage builds a single-part user message.
func UserMessage(text string) Message {
	return Message{Role: "user", Parts: []Part{TextPart(text)}}
}

// Text joins the message's text parts.
func (m *Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// TaskStatus carries the current state and the agent's latest message,
// which for input-required holds the question being asked.
type TaskStatus struct {
	State   TaskState `json:"state"`
	Message *Message  `json:"message,omitempty"`
}

// Artifact is one output produced by the remote agent.
type Artifact struct {
	Name  string `json:"name,omitempty"`
	Parts []Part `json:"parts"`
}

// Task is the remote delegation being tracked.
type Task struct {
	ID        string     `json:"id"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Output joins all artifact text, falling back to the status message
// when the task produced no artifacts.
func (t *Task) Output() string {
	var b strings.Builder
	for _, a := range t.Artifacts {
		for _, p := range a.Parts {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 && t.Status.Message != nil {
		return t.Status.Message.Text()
	}
	return b.String()
}
