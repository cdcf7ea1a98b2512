package testutil

import (
	"context"

	"github.com/relaykit/relay/agent"
	"github.com/relaykit/relay/tool"
)

// RegistryBuilder provides a fluent helper for constructing agent
// registries in tests.
//
// Example:
//
//	agents := NewRegistryBuilder().
//		Agent("supervisor", "Route requests.", agent.WithHandoffs("sales")).
//		Agent("sales", "Answer sales questions.", agent.WithTools(echo)).
//		Build()
type RegistryBuilder struct {
	agents map[string]*agent.Agent
}

// NewRegistryBuilder creates an empty registry builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{agents: map[string]*agent.Agent{}}
}

// Agent registers an agent under the given name (chainable).
func (b *RegistryBuilder) Agent(name, instructions string, optFns ...func(o *agent.Options)) *RegistryBuilder {
	b.agents[name] = agent.New(instructions, optFns...)
	return b
}

// Build returns the assembled registry.
func (b *RegistryBuilder) Build() map[string]*agent.Agent { return b.agents }

// noParams is the empty-argument schema shared by the canned tools.
func noParams() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// StaticTool returns a tool that always returns the same result. Calls are
// counted through the returned counter pointer.
func StaticTool(name string, result any) (*tool.FunctionTool, *int) {
	calls := new(int)
	t := tool.NewFunctionTool(name, "Static test tool", noParams(),
		func(_ context.Context, _ map[string]any) (any, error) {
			*calls++
			return result, nil
		})
	return t, calls
}

// FailingTool returns a tool whose invocation always fails with err.
func FailingTool(name string, err error) *tool.FunctionTool {
	return tool.NewFunctionTool(name, "Failing test tool", noParams(),
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, err
		})
}

// PanickingTool returns a tool that panics with the given value.
func PanickingTool(name string, v any) *tool.FunctionTool {
	return tool.NewFunctionTool(name, "Panicking test tool", noParams(),
		func(_ context.Context, _ map[string]any) (any, error) {
			panic(v)
		})
}

// EchoTool returns a tool echoing its arguments back as the result mapping.
func EchoTool(name string) *tool.FunctionTool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}
	return tool.NewFunctionTool(name, "Echo test tool", schema,
		func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{"echo": args["text"]}, nil
		})
}
