package core

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Item represents one entry in a run transcript. Concrete item types
// implement the unexported isItem marker enabling a closed set.
type Item interface{ isItem() }

// Message is a plain text turn item authored by the user or an assistant.
type Message struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// isItem implements the Item interface for Message.
func (Message) isItem() {}

// ToolCall is a backend request to invoke a named tool.
type ToolCall struct {
	ID        string `json:"id"`                  // Call identifier assigned by the backend
	Name      string `json:"name"`                // Tool name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// isItem implements the Item interface for ToolCall.
func (ToolCall) isItem() {}

// ToolResult carries a tool's serialized output back to the backend,
// correlated to the originating call by CallID.
type ToolResult struct {
	CallID string `json:"call_id"` // Matches the originating ToolCall ID
	Name   string `json:"name"`    // Tool name
	Output string `json:"output"`  // Serialized JSON payload (result or error)
}

// isItem implements the Item interface for ToolResult.
func (ToolResult) isItem() {}

// UserMessage constructs a user role Message.
func UserMessage(text string) Message { return Message{Role: "user", Text: text} }

// AssistantMessage constructs an assistant role Message.
func AssistantMessage(text string) Message { return Message{Role: "assistant", Text: text} }

// ErrorPayload serializes an error message into the standard tool error
// shape fed back to the backend so the conversation can self-correct.
func ErrorPayload(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}

// NewID generates a new unique identifier for runs and tool calls.
//
// Uses UUID v4 for global uniqueness across distributed systems.
// IDs correlate backend requests with their tool results.
func NewID() string { return uuid.NewString() }
