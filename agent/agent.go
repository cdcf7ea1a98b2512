// Package agent defines the static configuration of a single agent: its
// instructions, the work tools it may invoke and the handoff targets it may
// transfer control to. Agents are pure data holders; orchestration, tool
// dispatch and referential validation live in the runner package.
package agent

import "github.com/relaykit/relay/tool"

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Tools lists the agent's work tools in the order they are offered to
	// the backend.
	Tools []tool.Tool
	// Handoffs lists the names of agents this agent may transfer control
	// to, in the order their transfer tools are offered to the backend.
	// Every name must exist in the registry handed to the runner.
	Handoffs []string
}

// Agent is a named bundle of instructions, work tools and allowed handoff
// targets. Its identity is the key under which it is registered with the
// runner. Agents are immutable after construction and safe to share.
type Agent struct {
	instructions string
	tools        []tool.Tool
	handoffs     []string
}

// New creates an agent with the given system instructions.
//
// Example:
//
//	supervisor := agent.New(
//	  "You route requests. Always transfer, don't answer directly.",
//	  agent.WithHandoffs("sales", "policy"),
//	)
func New(instructions string, optFns ...func(o *Options)) *Agent {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Agent{
		instructions: instructions,
		tools:        append([]tool.Tool(nil), opts.Tools...),
		handoffs:     append([]string(nil), opts.Handoffs...),
	}
}

// WithTools sets the agent's work tools in declaration order.
func WithTools(tools ...tool.Tool) func(o *Options) {
	return func(o *Options) { o.Tools = tools }
}

// WithHandoffs sets the agent's allowed handoff targets in declaration order.
func WithHandoffs(targets ...string) func(o *Options) {
	return func(o *Options) { o.Handoffs = targets }
}

// Instructions returns the agent's system prompt text.
func (a *Agent) Instructions() string { return a.instructions }

// Tools returns the agent's work tools in declaration order. The returned
// slice is a copy.
func (a *Agent) Tools() []tool.Tool {
	return append([]tool.Tool(nil), a.tools...)
}

// Handoffs returns the agent's handoff targets in declaration order. The
// returned slice is a copy.
func (a *Agent) Handoffs() []string {
	return append([]string(nil), a.handoffs...)
}
