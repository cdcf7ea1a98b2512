package runner

import (
	"fmt"
	"strings"

	"github.com/relaykit/relay/agent"
	"github.com/relaykit/relay/model"
)

const (
	// handoffPrefix forms the synthetic tool name for a handoff target.
	handoffPrefix = "transfer_to_"

	// handoffSummaryLimit bounds the instruction prefix embedded in a
	// transfer tool's description. The backend only needs enough of the
	// target's role to pick the right agent.
	handoffSummaryLimit = 100
)

// handoffAck is the serialized result acknowledging a completed transfer.
const handoffAck = `{"ok":true}`

// handoffToolName returns the synthetic tool name for a handoff target.
func handoffToolName(target string) string { return handoffPrefix + target }

// newHandoffDefinition synthesizes the transfer tool schema offered to the
// backend for one handoff target. It carries a single required string
// parameter, reason, and summarizes the target's role with a short prefix
// of its instructions.
func newHandoffDefinition(target string, targetAgent *agent.Agent) model.ToolDefinition {
	summary := targetAgent.Instructions()
	if len(summary) > handoffSummaryLimit {
		summary = strings.ToValidUTF8(summary[:handoffSummaryLimit], "")
	}

	return model.NewToolDefinition(
		handoffToolName(target),
		fmt.Sprintf("Transfer to %s agent. %s", target, summary),
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"reason": map[string]any{
					"type":        "string",
					"description": "Why transfer",
				},
			},
			"required":             []string{"reason"},
			"additionalProperties": false,
		},
	)
}
