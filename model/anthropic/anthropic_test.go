package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relay/core"
	"github.com/relaykit/relay/model"
)

func TestBuildMessages_RoleGrouping(t *testing.T) {
	items := []core.Item{
		core.UserMessage("question"),
		core.AssistantMessage("let me check"),
		core.ToolCall{ID: "c1", Name: "lookup", Arguments: `{"q":"x"}`},
		core.ToolResult{CallID: "c1", Name: "lookup", Output: `{"rows":[]}`},
		core.AssistantMessage("answer"),
	}

	messages := buildMessages(items)
	// user, assistant(text+tool_use), user(tool_result), assistant
	require.Len(t, messages, 4)
	assert.Equal(t, "user", string(messages[0].Role))
	assert.Equal(t, "assistant", string(messages[1].Role))
	assert.Len(t, messages[1].Content, 2)
	assert.Equal(t, "user", string(messages[2].Role))
	assert.Equal(t, "assistant", string(messages[3].Role))
}

func TestBuildTools_RequiredVariants(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{
		model.NewToolDefinition("a", "A", map[string]any{
			"type":       "object",
			"properties": map[string]any{"x": map[string]any{"type": "string"}},
			"required":   []string{"x"},
		}),
		model.NewToolDefinition("b", "B", map[string]any{
			"type":       "object",
			"properties": map[string]any{"y": map[string]any{"type": "string"}},
			"required":   []any{"y"},
		}),
	})

	require.Len(t, tools, 2)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, []string{"x"}, tools[0].OfTool.InputSchema.Required)
	require.NotNil(t, tools[1].OfTool)
	assert.Equal(t, []string{"y"}, tools[1].OfTool.InputSchema.Required)
}

func TestOptions_Defaults(t *testing.T) {
	m := NewModel()
	info := m.Info()
	assert.Equal(t, "anthropic", info.Provider)
	assert.True(t, info.SupportsTools)
	assert.NotEmpty(t, info.Name)
}
