// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities (APIs, computations, side-effects) with
// schema validated arguments and consistent error handling.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/relaykit/relay/internal/util"
)

// Tool defines the interface for extending agent capabilities with external
// functions.
//
// Tools are registered with agents to enable function calling, allowing the
// backend to perform actions beyond text generation such as API calls,
// calculations or database queries.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define a proper JSON schema for parameters
//   - Return error payloads for expected business failures rather than
//     erroring; the orchestrator converts returned errors into error
//     payloads as a safety net
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should be descriptive and follow function naming conventions
	// (snake_case recommended). Uniqueness is enforced across the whole
	// registry at orchestrator construction.
	Name() string

	// Description returns a human-readable description of what this tool
	// does. It is provided to the backend to help it decide when and how
	// to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with arguments parsed from the backend's
	// argument payload.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError represents argument validation errors with detailed
// information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// MarshalResult serializes a tool's return value for the backend. Mappings,
// sequences and structs serialize as-is; scalars are wrapped into a
// single-key mapping so the payload is always a JSON document the backend
// can inspect.
func MarshalResult(result any) (string, error) {
	if result == nil {
		return "null", nil
	}
	switch reflect.Indirect(reflect.ValueOf(result)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
	default:
		result = map[string]any{"result": result}
	}
	b, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return string(b), nil
}
