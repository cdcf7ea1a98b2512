package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/relaykit/relay/agent"
	"github.com/relaykit/relay/core"
	"github.com/relaykit/relay/logging"
	"github.com/relaykit/relay/model"
	"github.com/relaykit/relay/tool"
)

const (
	// DefaultMaxTurns bounds the number of backend calls per run unless
	// overridden.
	DefaultMaxTurns = 10

	// MaxTurnsReached is the sentinel answer returned when the turn budget
	// is exhausted without a final answer. It is a normal termination mode,
	// not an error.
	MaxTurnsReached = "(max turns reached)"

	// NoOutput is the placeholder answer returned when the backend stops
	// calling tools but produces no text.
	NoOutput = "(no output)"
)

// ConfigError is a fatal registry misconfiguration detected at construction,
// before any backend call is made.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "runner config: " + e.Reason }

// Options holds configuration overrides passed to New().
type Options struct {
	// MaxTurns limits the number of backend calls per run.
	MaxTurns int
	// Logger receives structured orchestration events.
	Logger logging.Logger
}

// Runner coordinates the multi-agent loop: it owns the active-agent pointer
// for each run, dispatches one backend call per turn, executes work tools or
// performs handoffs and repeats until a final answer or the turn budget is
// exhausted.
//
// The registries built at construction (agents, tools, handoff map, cached
// tool definitions) are read-only afterwards, so a Runner may serve
// concurrent Run calls as long as the backend client and any state captured
// by tools are themselves safe for concurrent use.
type Runner struct {
	agents     map[string]*agent.Agent
	supervisor string
	backend    model.Model
	maxTurns   int
	logger     logging.Logger

	toolRegistry map[string]tool.Tool
	handoffs     map[string]string // transfer tool name -> target agent
	agentTools   map[string][]model.ToolDefinition
}

// New constructs a Runner over the given agent registry and backend.
//
// It fails with a *ConfigError if the supervisor is not registered, any
// agent's handoff target is undeclared, or tool names collide across agents
// sharing the registry. Silent shadowing would dispatch a call to the wrong
// function, so duplicates are rejected outright rather than overwritten.
func New(
	agents map[string]*agent.Agent,
	supervisor string,
	backend model.Model,
	optFns ...func(o *Options),
) (*Runner, error) {
	opts := Options{
		MaxTurns: DefaultMaxTurns,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if len(agents) == 0 {
		return nil, &ConfigError{Reason: "no agents registered"}
	}
	if _, ok := agents[supervisor]; !ok {
		return nil, &ConfigError{Reason: fmt.Sprintf("supervisor %q is not a registered agent", supervisor)}
	}

	r := &Runner{
		agents:       agents,
		supervisor:   supervisor,
		backend:      backend,
		maxTurns:     opts.MaxTurns,
		logger:       opts.Logger,
		toolRegistry: make(map[string]tool.Tool),
		handoffs:     make(map[string]string),
		agentTools:   make(map[string][]model.ToolDefinition),
	}

	if err := r.buildRegistries(); err != nil {
		return nil, err
	}

	return r, nil
}

// buildRegistries validates the agent graph and precomputes, for every
// agent, the full tool list offered to the backend on its turns: work tools
// in declaration order followed by one synthetic transfer tool per handoff
// target in declaration order. Agent names are walked in sorted order so
// collision errors are deterministic.
func (r *Runner) buildRegistries() error {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ag := r.agents[name]
		var defs []model.ToolDefinition

		for _, t := range ag.Tools() {
			if _, exists := r.toolRegistry[t.Name()]; exists {
				return &ConfigError{Reason: fmt.Sprintf("duplicate tool name %q (agent %q)", t.Name(), name)}
			}
			r.toolRegistry[t.Name()] = t
			defs = append(defs, model.NewToolDefinition(t.Name(), t.Description(), t.Parameters()))
		}

		for _, target := range ag.Handoffs() {
			targetAgent, ok := r.agents[target]
			if !ok {
				return &ConfigError{Reason: fmt.Sprintf("handoff target %q of agent %q is not a registered agent", target, name)}
			}
			transferName := handoffToolName(target)
			if _, exists := r.toolRegistry[transferName]; exists {
				return &ConfigError{Reason: fmt.Sprintf("tool name %q collides with the transfer tool for agent %q", transferName, target)}
			}
			defs = append(defs, newHandoffDefinition(target, targetAgent))
			r.handoffs[transferName] = target
		}

		r.agentTools[name] = defs
	}

	// A work tool registered after a transfer tool of the same name would
	// have slipped past the per-agent check above.
	for transferName := range r.handoffs {
		if _, exists := r.toolRegistry[transferName]; exists {
			return &ConfigError{Reason: fmt.Sprintf("tool name %q collides with a transfer tool", transferName)}
		}
	}

	return nil
}

// AgentToolDefinitions returns the cached tool list presented to the
// backend for the named agent. The returned slice is a copy; it is
// identical across repeated turns for the same agent.
func (r *Runner) AgentToolDefinitions(name string) []model.ToolDefinition {
	return append([]model.ToolDefinition(nil), r.agentTools[name]...)
}

// RunOptions holds per-run overrides.
type RunOptions struct {
	// MaxTurns overrides the runner-level turn budget for this run.
	MaxTurns int
}

// Run drives the orchestration loop for one user query and returns the
// final answer text, or MaxTurnsReached when the turn budget is exhausted.
//
// Per-turn failures (unknown tools, tool errors, malformed argument
// payloads) are absorbed into error payloads fed back to the backend so the
// conversation can self-correct; the only error Run itself returns is a
// failed backend call.
func (r *Runner) Run(ctx context.Context, query string, optFns ...func(o *RunOptions)) (string, error) {
	runOpts := RunOptions{MaxTurns: r.maxTurns}
	for _, fn := range optFns {
		fn(&runOpts)
	}

	runID := core.NewID()
	transcript := core.NewTranscript(core.UserMessage(query))
	current := r.supervisor

	r.logger.Info("runner.run.start", "run_id", runID, "supervisor", current, "max_turns", runOpts.MaxTurns)

	for turn := 1; turn <= runOpts.MaxTurns; turn++ {
		ag := r.agents[current]

		r.logger.Debug("runner.turn.start", "run_id", runID, "turn", turn, "agent", current)

		resp, err := r.backend.Complete(ctx, model.Request{
			Instructions: ag.Instructions(),
			Input:        transcript.Items(),
			Tools:        r.agentTools[current],
		})
		if err != nil {
			return "", fmt.Errorf("backend call failed for agent %q: %w", current, err)
		}

		// The backend sees its own prior reasoning and tool requests on
		// subsequent turns.
		transcript.Append(resp.Output...)

		calls := resp.ToolCalls()
		if len(calls) == 0 {
			text := resp.Text()
			if text == "" {
				text = NoOutput
			}
			r.logger.Info("runner.final", "run_id", runID, "agent", current, "turns", turn)
			return text, nil
		}

		for _, call := range calls {
			target, isHandoff := r.handoffs[call.Name]
			if !isHandoff {
				transcript.Append(r.executeTool(ctx, runID, current, call))
				continue
			}

			r.logger.Info("runner.handoff", "run_id", runID, "from", current, "to", target, "call_id", call.ID)
			transcript.Append(core.ToolResult{CallID: call.ID, Name: call.Name, Output: handoffAck})
			current = target
			// Only the first handoff request per turn is honored; the
			// remaining calls in this backend response are discarded since
			// control has moved to a different agent's context.
			break
		}
	}

	r.logger.Warn("runner.max_turns", "run_id", runID, "agent", current, "max_turns", runOpts.MaxTurns)

	return MaxTurnsReached, nil
}

// executeTool dispatches one work-tool call and converts every failure mode
// (unknown tool, malformed arguments, returned error, panic) into an error
// payload so the run continues.
func (r *Runner) executeTool(ctx context.Context, runID, agentName string, call core.ToolCall) core.ToolResult {
	result := core.ToolResult{CallID: call.ID, Name: call.Name}

	impl, ok := r.toolRegistry[call.Name]
	if !ok {
		r.logger.Warn("runner.tool.unknown", "run_id", runID, "agent", agentName, "tool", call.Name)
		result.Output = core.ErrorPayload("unknown tool: " + call.Name)
		return result
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			r.logger.Warn("runner.tool.bad_args", "run_id", runID, "tool", call.Name, "error", err.Error())
			result.Output = core.ErrorPayload(fmt.Sprintf("failed to parse arguments: %v", err))
			return result
		}
	}

	r.logger.Debug("runner.tool.call", "run_id", runID, "agent", agentName, "tool", call.Name, "call_id", call.ID)

	out, err := safeCall(ctx, impl, args)
	if err != nil {
		r.logger.Error("runner.tool.error", "run_id", runID, "tool", call.Name, "error", err.Error())
		result.Output = core.ErrorPayload(err.Error())
		return result
	}

	payload, err := tool.MarshalResult(out)
	if err != nil {
		r.logger.Error("runner.tool.marshal_error", "run_id", runID, "tool", call.Name, "error", err.Error())
		result.Output = core.ErrorPayload(err.Error())
		return result
	}

	result.Output = payload
	return result
}

// safeCall invokes a tool with panic recovery so a misbehaving tool cannot
// abort the run.
func safeCall(ctx context.Context, t tool.Tool, args map[string]any) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool panicked: %v", rec)
		}
	}()
	return t.Call(ctx, args)
}
