// Package model defines the provider-agnostic backend contract used by the
// orchestrator.
//
// Core goals:
//   - Normalize tool / function call representation (ToolDefinition)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so the runner remains decoupled from vendor SDKs.
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/relaykit/relay/core"
)

// ToolDefinition declaratively exposes a callable function to the backend.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// backend. Parameters is a JSON Schema object (draft agnostic, minimal
// subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// NewToolDefinition builds a function ToolDefinition.
func NewToolDefinition(name, description string, parameters map[string]any) ToolDefinition {
	return ToolDefinition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// Request captures one backend call scoped to a single agent: its
// instructions, the full shared transcript so far and the agent's tool
// definitions. Tools is nil for agents without tools or handoffs, which
// disables tool use entirely for that call.
type Request struct {
	Instructions string           `json:"instructions"`
	Input        []core.Item      `json:"input"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// Response is the ordered list of output items produced by one backend
// call. Each item is either assistant text or a tool-call request.
type Response struct {
	Output []core.Item `json:"output"`
}

// Text concatenates the assistant text of all output messages.
func (r *Response) Text() string {
	var sb strings.Builder
	for _, item := range r.Output {
		if msg, ok := item.(core.Message); ok && msg.Role == "assistant" {
			sb.WriteString(msg.Text)
		}
	}
	return sb.String()
}

// ToolCalls extracts the subset of output items that are tool-call
// requests, preserving order.
func (r *Response) ToolCalls() []core.ToolCall {
	var calls []core.ToolCall
	for _, item := range r.Output {
		if call, ok := item.(core.ToolCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the runner to drive one
// conversational completion per turn.
type Model interface {
	// Complete performs a single completion call and returns the ordered
	// output items.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Turns are scripted in order; each Complete call pops the next scripted
// output. Every received request is recorded for assertions.
type MockModel struct {
	info     Info
	scripted [][]core.Item
	requests []Request
	err      error
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      "mock",
			SupportsTools: true,
		},
	}
}

// Enqueue appends one scripted turn of output items.
func (m *MockModel) Enqueue(items ...core.Item) *MockModel {
	m.scripted = append(m.scripted, items)
	return m
}

// FailWith makes every subsequent Complete call return err.
func (m *MockModel) FailWith(err error) *MockModel {
	m.err = err
	return m
}

// Requests returns the requests received so far, in order.
func (m *MockModel) Requests() []Request { return m.requests }

// Complete implements Model; pops the next scripted turn or echoes the last
// user message when the script is exhausted.
func (m *MockModel) Complete(_ context.Context, req Request) (*Response, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.scripted) > 0 {
		items := m.scripted[0]
		m.scripted = m.scripted[1:]
		return &Response{Output: items}, nil
	}

	var lastUser string
	for _, item := range req.Input {
		if msg, ok := item.(core.Message); ok && msg.Role == "user" {
			lastUser = msg.Text
		}
	}
	return &Response{Output: []core.Item{
		core.AssistantMessage(fmt.Sprintf("Mock response to: %s", lastUser)),
	}}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
