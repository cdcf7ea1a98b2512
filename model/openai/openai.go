// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API (including function/tool calling). It adapts relay's
// normalized Request/Response structures into the SDK's message format and
// back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/relaykit/relay/core"
	"github.com/relaykit/relay/model"
)

// Options configure the OpenAI model adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic
// model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Complete implements model.Model using a non-streaming chat completion.
func (m *Model) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, tdef := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        tdef.Function.Name,
					Description: openai.String(tdef.Function.Description),
					Parameters:  tdef.Function.Parameters,
				},
			}
		}
		params.Tools = tools
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	msg := resp.Choices[0].Message
	output := make([]core.Item, 0, len(msg.ToolCalls)+1)
	if msg.Content != "" {
		output = append(output, core.AssistantMessage(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		output = append(output, core.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return &model.Response{Output: output}, nil
}

// buildMessages converts normalized transcript items into OpenAI chat
// messages. Consecutive assistant text and tool-call items collapse into a
// single assistant message carrying tool_calls, followed by their matching
// tool role messages, as the Chat Completions API requires.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	var pendingText string
	var pendingCalls []openai.ChatCompletionMessageToolCallParam

	flush := func() {
		if pendingText == "" && len(pendingCalls) == 0 {
			return
		}
		if pendingText != "" {
			messages = append(messages, openai.AssistantMessage(pendingText))
		}
		if len(pendingCalls) > 0 {
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: pendingCalls,
				},
			})
		}
		pendingText = ""
		pendingCalls = nil
	}

	for _, item := range req.Input {
		switch it := item.(type) {
		case core.Message:
			if it.Role == "assistant" {
				pendingText += it.Text
				continue
			}
			flush()
			messages = append(messages, openai.UserMessage(it.Text))
		case core.ToolCall:
			pendingCalls = append(pendingCalls, openai.ChatCompletionMessageToolCallParam{
				ID:   it.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      it.Name,
					Arguments: it.Arguments,
				},
			})
		case core.ToolResult:
			flush()
			messages = append(messages, openai.ToolMessage(it.Output, it.CallID))
		}
	}
	flush()

	return messages
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
