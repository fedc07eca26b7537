package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/jobtrack/core"
)

// ToolDefinition declaratively exposes a callable tool to the model. The
// shape comes straight from the session's tool catalog.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"` // JSON Schema object
}

// Request captures one normalized reasoning-engine input: the full message
// history plus the tool catalog.
type Request struct {
	System   string           `json:"system,omitempty"`
	Messages []core.Message   `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one complete assistant reply.
type Response struct {
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "tool_use", "length", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "anthropic", "openai", "scripted", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the conversation driver needs. Generate
// blocks until the provider returns a complete reply or ctx is done; the
// driver never consumes partial output.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// ScriptedModel is a lightweight in-memory Model replaying a fixed sequence
// of responses. Useful for multi-round driver tests and examples.
type ScriptedModel struct {
	info Info

	mu        sync.Mutex
	responses []Response
	requests  []Request
	next      int
}

// NewScriptedModel constructs a ScriptedModel that yields the given
// responses in order.
func NewScriptedModel(responses ...Response) *ScriptedModel {
	return &ScriptedModel{
		info:      Info{Name: "scripted", Provider: "scripted", SupportsTools: true},
		responses: responses,
	}
}

// Generate implements Model; it records the request and pops the next
// scripted response, erroring once the script is exhausted.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.next >= len(m.responses) {
		return nil, fmt.Errorf("scripted model exhausted after %d responses", len(m.responses))
	}

	resp := m.responses[m.next]
	m.next++

	return &resp, nil
}

// Requests returns a copy of every request seen so far, in order.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns the number of Generate calls seen so far.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Info implements the Model interface.
func (m *ScriptedModel) Info() Info { return m.info }
