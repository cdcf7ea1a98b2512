// Package runner implements the core orchestration layer for relay.
//
// The Runner owns the agent registry, the read-only handoff map and the
// cached per-agent tool definitions. Each Run call drives a strictly
// sequential loop: one backend completion per turn scoped to the current
// agent, followed by interpretation of the output (final text vs. tool
// calls), tool dispatch or a handoff, until a final answer is produced or
// the turn budget is exhausted.
//
// # Responsibilities (abridged)
//   - Registry validation at construction (handoff targets, tool name
//     collisions) so misconfiguration never surfaces mid-conversation
//   - Handoff tool synthesis (one transfer_to_<target> per allowed target)
//   - Tool dispatch with panic recovery and error-payload conversion
//   - Turn budget enforcement
//
// See runner.go for the operational implementation details.
package runner
