// Package relay provides a high-level façade over the runner package for
// building multi-agent systems that cooperate via the "handoff as tool"
// pattern. Most applications interact with this package by:
//  1. Defining tools (tool.NewFunctionTool / NewFunctionToolFromStruct)
//  2. Defining agents (agent.New with WithTools / WithHandoffs)
//  3. Creating a Relay via New() and calling Run()
//
// Handing off is modeled as an ordinary tool, not a special backend
// feature: for every allowed target the backend is offered a synthetic
// transfer_to_<target> tool, so any completion backend that supports
// generic structured tool calling can drive the orchestrator. All agents
// share one transcript; a handoff never resets context, so the target
// agent inherits the full conversational history including why it was
// invoked.
package relay

import (
	"context"

	"github.com/relaykit/relay/agent"
	"github.com/relaykit/relay/logging"
	"github.com/relaykit/relay/model"
	"github.com/relaykit/relay/runner"
)

// Options configures the Relay instance.
type Options struct {
	// MaxTurns limits the number of backend calls per run.
	MaxTurns int

	// Verbose installs a human-readable text logger on stdout so agent
	// routing, tool calls and handoffs are visible turn by turn. Ignored
	// when Logger is set explicitly.
	Verbose bool

	// Logger overrides the default logger (NoOpLogger, or a text logger
	// when Verbose is set).
	Logger logging.Logger
}

// Relay is the high-level façade aggregating the orchestrator and its
// configuration.
type Relay struct {
	runner *runner.Runner
}

// New creates a Relay over the given agent registry, supervisor and
// backend. It fails with a *runner.ConfigError if any agent's handoff
// target is undeclared or tool names collide across agents.
//
// Example:
//
//	agents := map[string]*agent.Agent{
//	  "supervisor": agent.New("You route requests.", agent.WithHandoffs("research")),
//	  "research":   agent.New("You do research.", agent.WithTools(webSearch)),
//	}
//	app, err := relay.New(agents, "supervisor", openai.NewModel())
//	answer, err := app.Run(ctx, "Find info about X")
func New(
	agents map[string]*agent.Agent,
	supervisor string,
	backend model.Model,
	optFns ...func(o *Options),
) (*Relay, error) {
	opts := Options{
		MaxTurns: runner.DefaultMaxTurns,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		if opts.Verbose {
			logger = logging.NewSlogLogger(logging.LogLevelDebug, "text")
		} else {
			logger = logging.NoOpLogger{}
		}
	}

	r, err := runner.New(agents, supervisor, backend, func(o *runner.Options) {
		o.MaxTurns = opts.MaxTurns
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	return &Relay{runner: r}, nil
}

// Run answers one user query and returns the final answer text, or the
// exhaustion sentinel when the turn budget runs out.
func (r *Relay) Run(ctx context.Context, query string) (string, error) {
	return r.runner.Run(ctx, query)
}

// Runner exposes the underlying orchestrator for callers that need per-run
// overrides or registry introspection.
func (r *Relay) Runner() *runner.Runner { return r.runner }
