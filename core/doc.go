// Package core provides the foundational domain types shared across relay.
// It defines the transcript item model used by every layer:
//
//   - Item (closed union of turn entries)
//   - Message / ToolCall / ToolResult (concrete item kinds)
//   - Transcript (append-only ordered history of a single run)
//
// The package intentionally keeps implementation concerns (backends,
// orchestration, concrete tools) out of scope so that higher layers can
// depend on a small, stable vocabulary without cyclic imports.
package core
