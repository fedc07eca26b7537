// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API (including function/tool calling). It adapts the
// normalized Request/Response structures into the SDK's message format and
// back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/jobtrack/core"
	"github.com/hupe1980/jobtrack/model"
)

// Options configure the OpenAI model adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client
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

// Generate implements model.Model via a single blocking Chat Completions call.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api returned no choices")
	}

	choice := resp.Choices[0]
	msg := core.Message{Role: core.RoleAssistant}

	if choice.Message.Content != "" {
		msg.Parts = append(msg.Parts, core.TextPart{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		msg.Parts = append(msg.Parts, core.ToolUsePart{
			ToolUse: core.ToolUse{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	finishReason := "stop"
	if choice.FinishReason != "" {
		finishReason = string(choice.FinishReason)
	}

	return &model.Response{
		Message:      msg,
		FinishReason: finishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// buildMessages converts the normalized history into chat messages. Tool
// results arrive in user-role messages and map to role:"tool" chat messages
// correlated by tool call id.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case core.RoleAssistant:
			messages = append(messages, buildAssistantMessage(m))
		default:
			messages = append(messages, buildUserMessages(m)...)
		}
	}

	return messages
}

// buildAssistantMessage maps an assistant reply (text plus tool calls) to a
// single assistant chat message.
func buildAssistantMessage(m core.Message) openai.ChatCompletionMessageParamUnion {
	text := m.Text()

	var toolCalls []openai.ChatCompletionMessageToolCallParam
	for _, use := range m.ToolUses() {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   use.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      use.Name,
				Arguments: use.Arguments,
			},
		})
	}

	if len(toolCalls) == 0 {
		return openai.AssistantMessage(text)
	}

	assistant := openai.ChatCompletionAssistantMessageParam{
		Role:      "assistant",
		ToolCalls: toolCalls,
	}
	if text != "" {
		assistant.Content.OfString = openai.String(text)
	}

	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

// buildUserMessages splits a user message into plain text and tool-result
// chat messages, preserving part order.
func buildUserMessages(m core.Message) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	for _, p := range m.Parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				messages = append(messages, openai.UserMessage(part.Text))
			}
		case core.ToolResultPart:
			messages = append(messages, openai.ToolMessage(part.ToolResult.Content, part.ToolResult.ID))
		}
	}

	return messages
}

// buildTools converts catalog tool definitions to the OpenAI tool format.
func buildTools(tools []model.ToolDefinition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, tool := range tools {
		out[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(tool.InputSchema),
			},
		}
	}
	return out
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
