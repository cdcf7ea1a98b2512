package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relay/agent"
	"github.com/relaykit/relay/core"
	"github.com/relaykit/relay/internal/testutil"
	"github.com/relaykit/relay/model"
)

// toolResults extracts the ToolResult items from a request's input.
func toolResults(req model.Request) []core.ToolResult {
	var out []core.ToolResult
	for _, item := range req.Input {
		if res, ok := item.(core.ToolResult); ok {
			out = append(out, res)
		}
	}
	return out
}

// -------------------- Construction Tests --------------------

func TestNew_UndeclaredHandoffTarget(t *testing.T) {
	backend := model.NewMockModel("test")
	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Route requests.", agent.WithHandoffs("ghost")).
		Build()

	_, err := New(agents, "supervisor", backend)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "ghost")
	// Failed before any backend call was made
	assert.Empty(t, backend.Requests())
}

func TestNew_UnknownSupervisor(t *testing.T) {
	agents := testutil.NewRegistryBuilder().
		Agent("worker", "Work.").
		Build()

	_, err := New(agents, "supervisor", model.NewMockModel("test"))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNew_DuplicateToolName(t *testing.T) {
	first, _ := testutil.StaticTool("lookup", "a")
	second, _ := testutil.StaticTool("lookup", "b")
	agents := testutil.NewRegistryBuilder().
		Agent("alpha", "First.", agent.WithTools(first)).
		Agent("beta", "Second.", agent.WithTools(second)).
		Build()

	_, err := New(agents, "alpha", model.NewMockModel("test"))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, `"lookup"`)
}

func TestNew_WorkToolCollidesWithTransferTool(t *testing.T) {
	shadow, _ := testutil.StaticTool("transfer_to_sales", "shadow")
	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Route.", agent.WithHandoffs("sales")).
		Agent("sales", "Sell.").
		Agent("zeta", "Shadow.", agent.WithTools(shadow)).
		Build()

	_, err := New(agents, "supervisor", model.NewMockModel("test"))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "transfer_to_sales")
}

// -------------------- Tool List Synthesis Tests --------------------

func TestAgentToolDefinitions_WorkToolsThenHandoffs(t *testing.T) {
	first, _ := testutil.StaticTool("first", "1")
	second, _ := testutil.StaticTool("second", "2")
	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Route requests to specialists.",
			agent.WithTools(first, second),
			agent.WithHandoffs("sales", "policy")).
		Agent("sales", "You answer sales questions with the data you are given.").
		Agent("policy", "You answer policy questions.").
		Build()

	r, err := New(agents, "supervisor", model.NewMockModel("test"))
	require.NoError(t, err)

	defs := r.AgentToolDefinitions("supervisor")
	require.Len(t, defs, 4)
	assert.Equal(t, "first", defs[0].Function.Name)
	assert.Equal(t, "second", defs[1].Function.Name)
	assert.Equal(t, "transfer_to_sales", defs[2].Function.Name)
	assert.Equal(t, "transfer_to_policy", defs[3].Function.Name)

	// Transfer tool summarizes the target's role and requires a reason
	assert.Equal(t, "function", defs[2].Type)
	assert.Contains(t, defs[2].Function.Description, "Transfer to sales agent.")
	assert.Contains(t, defs[2].Function.Description, "You answer sales questions")
	assert.Equal(t, []string{"reason"}, defs[2].Function.Parameters["required"])
	props := defs[2].Function.Parameters["properties"].(map[string]any)
	reason := props["reason"].(map[string]any)
	assert.Equal(t, "string", reason["type"])

	// The cached list is identical across lookups
	assert.Equal(t, defs, r.AgentToolDefinitions("supervisor"))
}

func TestAgentToolDefinitions_SummaryTruncated(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Route.", agent.WithHandoffs("verbose")).
		Agent("verbose", string(long)).
		Build()

	r, err := New(agents, "supervisor", model.NewMockModel("test"))
	require.NoError(t, err)

	defs := r.AgentToolDefinitions("supervisor")
	require.Len(t, defs, 1)
	assert.LessOrEqual(t, len(defs[0].Function.Description), len("Transfer to verbose agent. ")+100)
}

// -------------------- Run Loop Tests --------------------

func TestRun_ImmediateFinal(t *testing.T) {
	backend := model.NewMockModel("test").
		Enqueue(core.AssistantMessage("the answer"))
	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Answer directly.").
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	answer, err := r.Run(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)

	// Exactly one backend call, scoped to the supervisor
	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Answer directly.", reqs[0].Instructions)
	assert.Equal(t, []core.Item{core.UserMessage("question")}, reqs[0].Input)
	// No tools and no handoffs -> tool use disabled entirely
	assert.Nil(t, reqs[0].Tools)
}

func TestRun_EmptyFinalUsesPlaceholder(t *testing.T) {
	backend := model.NewMockModel("test").
		Enqueue() // no output items at all
	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Answer.").
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	answer, err := r.Run(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, NoOutput, answer)
}

func TestRun_Handoff(t *testing.T) {
	backend := model.NewMockModel("test").
		Enqueue(core.ToolCall{ID: "h1", Name: "transfer_to_sales", Arguments: `{"reason":"sales question"}`}).
		Enqueue(core.AssistantMessage("sales says hi"))

	lookup, _ := testutil.StaticTool("lookup_sales", map[string]any{"rows": []any{}})
	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Route requests.", agent.WithHandoffs("sales")).
		Agent("sales", "You answer sales questions.", agent.WithTools(lookup)).
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	answer, err := r.Run(context.Background(), "sales question")
	require.NoError(t, err)
	assert.Equal(t, "sales says hi", answer)

	reqs := backend.Requests()
	require.Len(t, reqs, 2)

	// Second call is scoped to sales: its instructions and its tool list
	assert.Equal(t, "You answer sales questions.", reqs[1].Instructions)
	assert.Equal(t, r.AgentToolDefinitions("sales"), reqs[1].Tools)

	// The transfer was acknowledged in the shared transcript
	results := toolResults(reqs[1])
	require.Len(t, results, 1)
	assert.Equal(t, "h1", results[0].CallID)
	assert.JSONEq(t, `{"ok":true}`, results[0].Output)

	// Context continuity: the sales agent sees the original user query
	assert.Equal(t, core.UserMessage("sales question"), reqs[1].Input[0])
}

func TestRun_HandoffDiscardsRemainingCalls(t *testing.T) {
	static, calls := testutil.StaticTool("audit", "ok")
	backend := model.NewMockModel("test").
		Enqueue(
			core.ToolCall{ID: "h1", Name: "transfer_to_sales", Arguments: `{"reason":"go"}`},
			core.ToolCall{ID: "c2", Name: "audit", Arguments: `{}`},
		).
		Enqueue(core.AssistantMessage("done"))

	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Route.", agent.WithTools(static), agent.WithHandoffs("sales")).
		Agent("sales", "Sell.").
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	answer, err := r.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "done", answer)

	// The call after the handoff was never executed or acknowledged
	assert.Equal(t, 0, *calls)
	results := toolResults(backend.Requests()[1])
	require.Len(t, results, 1)
	assert.Equal(t, "h1", results[0].CallID)
}

func TestRun_UnknownToolContinues(t *testing.T) {
	backend := model.NewMockModel("test").
		Enqueue(core.ToolCall{ID: "c1", Name: "nonexistent", Arguments: `{}`}).
		Enqueue(core.AssistantMessage("recovered"))

	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Answer.").
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	answer, err := r.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)

	// The next turn's transcript carries an error result for that call
	results := toolResults(backend.Requests()[1])
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].CallID)
	assert.JSONEq(t, `{"error":"unknown tool: nonexistent"}`, results[0].Output)
}

func TestRun_ToolErrorBecomesPayload(t *testing.T) {
	failing := testutil.FailingTool("broken", errors.New("db unreachable"))
	backend := model.NewMockModel("test").
		Enqueue(core.ToolCall{ID: "c1", Name: "broken", Arguments: `{}`}).
		Enqueue(core.AssistantMessage("sorry"))

	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Answer.", agent.WithTools(failing)).
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	answer, err := r.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "sorry", answer)

	results := toolResults(backend.Requests()[1])
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Output, "db unreachable")
}

func TestRun_ToolPanicBecomesPayload(t *testing.T) {
	panicking := testutil.PanickingTool("explosive", "kaboom")
	backend := model.NewMockModel("test").
		Enqueue(core.ToolCall{ID: "c1", Name: "explosive", Arguments: `{}`}).
		Enqueue(core.AssistantMessage("survived"))

	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Answer.", agent.WithTools(panicking)).
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	answer, err := r.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "survived", answer)

	results := toolResults(backend.Requests()[1])
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Output, "tool panicked")
	assert.Contains(t, results[0].Output, "kaboom")
}

func TestRun_MalformedArgumentsBecomePayload(t *testing.T) {
	echo := testutil.EchoTool("echo")
	backend := model.NewMockModel("test").
		Enqueue(core.ToolCall{ID: "c1", Name: "echo", Arguments: `not json`}).
		Enqueue(core.AssistantMessage("ok"))

	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Answer.", agent.WithTools(echo)).
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), "q")
	require.NoError(t, err)

	results := toolResults(backend.Requests()[1])
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Output, "failed to parse arguments")
}

func TestRun_MaxTurnsExhaustion(t *testing.T) {
	backend := model.NewMockModel("test")
	// The backend never stops requesting tool calls
	for i := 0; i < 5; i++ {
		backend.Enqueue(core.ToolCall{ID: "c1", Name: "nonexistent", Arguments: `{}`})
	}

	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Answer.").
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	answer, err := r.Run(context.Background(), "q", func(o *RunOptions) { o.MaxTurns = 3 })
	require.NoError(t, err)
	assert.Equal(t, MaxTurnsReached, answer)
	assert.Len(t, backend.Requests(), 3)
}

func TestRun_MultipleToolCallsExecuteInOrder(t *testing.T) {
	backend := model.NewMockModel("test").
		Enqueue(
			core.ToolCall{ID: "c1", Name: "alpha", Arguments: `{}`},
			core.ToolCall{ID: "c2", Name: "beta", Arguments: `{}`},
		).
		Enqueue(core.AssistantMessage("done"))

	alpha, alphaCalls := testutil.StaticTool("alpha", "a")
	beta, betaCalls := testutil.StaticTool("beta", "b")

	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Answer.", agent.WithTools(alpha, beta)).
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 1, *alphaCalls)
	assert.Equal(t, 1, *betaCalls)

	results := toolResults(backend.Requests()[1])
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].CallID)
	assert.JSONEq(t, `{"result":"a"}`, results[0].Output)
	assert.Equal(t, "c2", results[1].CallID)
	assert.JSONEq(t, `{"result":"b"}`, results[1].Output)
}

func TestRun_DeterministicToolPayloads(t *testing.T) {
	echo := testutil.EchoTool("echo")
	backend := model.NewMockModel("test").
		Enqueue(core.ToolCall{ID: "c1", Name: "echo", Arguments: `{"text":"same"}`}).
		Enqueue(core.ToolCall{ID: "c2", Name: "echo", Arguments: `{"text":"same"}`}).
		Enqueue(core.AssistantMessage("done"))

	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Answer.", agent.WithTools(echo)).
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), "q")
	require.NoError(t, err)

	// Identical arguments produce identical payloads; the orchestrator
	// adds no randomness of its own.
	results := toolResults(backend.Requests()[2])
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Output, results[1].Output)
}

func TestRun_BackendErrorSurfaces(t *testing.T) {
	backend := model.NewMockModel("test").FailWith(errors.New("connection refused"))
	agents := testutil.NewRegistryBuilder().
		Agent("supervisor", "Answer.").
		Build()

	r, err := New(agents, "supervisor", backend)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
