package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relay/core"
)

func TestResponse_TextAndToolCalls(t *testing.T) {
	resp := &Response{Output: []core.Item{
		core.AssistantMessage("part one "),
		core.ToolCall{ID: "c1", Name: "lookup"},
		core.AssistantMessage("part two"),
		core.ToolCall{ID: "c2", Name: "submit"},
	}}

	assert.Equal(t, "part one part two", resp.Text())

	calls := resp.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "lookup", calls[0].Name)
	assert.Equal(t, "submit", calls[1].Name)
}

func TestResponse_TextIgnoresUserMessages(t *testing.T) {
	resp := &Response{Output: []core.Item{
		core.UserMessage("should not appear"),
		core.AssistantMessage("answer"),
	}}
	assert.Equal(t, "answer", resp.Text())
}

func TestMockModel_ScriptedTurns(t *testing.T) {
	m := NewMockModel("test").
		Enqueue(core.ToolCall{ID: "c1", Name: "lookup"}).
		Enqueue(core.AssistantMessage("done"))

	resp, err := m.Complete(context.Background(), Request{Input: []core.Item{core.UserMessage("q")}})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls(), 1)

	resp, err = m.Complete(context.Background(), Request{Input: []core.Item{core.UserMessage("q")}})
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Text())

	// Script exhausted -> echo of the last user message
	resp, err = m.Complete(context.Background(), Request{Input: []core.Item{core.UserMessage("ping")}})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: ping", resp.Text())

	assert.Len(t, m.Requests(), 3)
}

func TestMockModel_FailWith(t *testing.T) {
	m := NewMockModel("test").FailWith(errors.New("backend down"))

	_, err := m.Complete(context.Background(), Request{})
	assert.EqualError(t, err, "backend down")
}

func TestMockModel_Info(t *testing.T) {
	info := NewMockModel("test").Info()
	assert.Equal(t, "test", info.Name)
	assert.Equal(t, "mock", info.Provider)
	assert.True(t, info.SupportsTools)
}
