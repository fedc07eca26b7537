package driver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/jobtrack/core"
	"github.com/hupe1980/jobtrack/model"
)

// recordingCaller records every call and replays canned content or errors.
type recordingCaller struct {
	mu    sync.Mutex
	calls []recordedCall

	content string
	err     error
}

type recordedCall struct {
	name string
	args map[string]any
}

func (c *recordingCaller) CallTool(ctx context.Context, name string, args map[string]any, timeout time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, recordedCall{name: name, args: args})
	if c.err != nil {
		return "", c.err
	}
	return c.content, nil
}

func textReply(text string) model.Response {
	return model.Response{
		Message: core.Message{
			Role:  core.RoleAssistant,
			Parts: []core.Part{core.TextPart{Text: text}},
		},
		FinishReason: "stop",
	}
}

func toolReply(parts ...core.Part) model.Response {
	return model.Response{
		Message:      core.Message{Role: core.RoleAssistant, Parts: parts},
		FinishReason: "tool_use",
	}
}

func TestRun_TerminatesWithoutToolCall(t *testing.T) {
	llm := model.NewScriptedModel(textReply("All done."))
	caller := &recordingCaller{}

	d := New(llm, caller, nil)

	res, err := d.Run(context.Background(), "note this")
	require.NoError(t, err)

	assert.Equal(t, "All done.", res.Text)
	assert.Equal(t, 1, res.Rounds)
	assert.Empty(t, caller.calls)
	assert.Len(t, res.History, 2) // instruction + reply
}

func TestRun_ExecutesToolThenFinishes(t *testing.T) {
	llm := model.NewScriptedModel(
		toolReply(
			core.TextPart{Text: "Updating the record. "},
			core.ToolUsePart{ToolUse: core.ToolUse{ID: "u1", Name: "update_page", Arguments: `{"page":"Acme"}`}},
		),
		textReply("Done."),
	)
	caller := &recordingCaller{content: "ok"}

	d := New(llm, caller, nil)

	res, err := d.Run(context.Background(), "note this")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Rounds)
	assert.Equal(t, "Updating the record. Done.", res.Text)

	require.Len(t, caller.calls, 1)
	assert.Equal(t, "update_page", caller.calls[0].name)
	assert.Equal(t, map[string]any{"page": "Acme"}, caller.calls[0].args)

	// history: instruction, reply, tool result, final reply
	require.Len(t, res.History, 4)
	resultMsg := res.History[2]
	assert.Equal(t, core.RoleUser, resultMsg.Role)
	rp, ok := resultMsg.Parts[0].(core.ToolResultPart)
	require.True(t, ok)
	assert.Equal(t, "u1", rp.ToolResult.ID)
	assert.Equal(t, "ok", rp.ToolResult.Content)
}

func TestRun_OnlyFirstToolUseExecuted(t *testing.T) {
	llm := model.NewScriptedModel(
		toolReply(
			core.ToolUsePart{ToolUse: core.ToolUse{ID: "u1", Name: "first", Arguments: "{}"}},
			core.ToolUsePart{ToolUse: core.ToolUse{ID: "u2", Name: "second", Arguments: "{}"}},
			core.ToolUsePart{ToolUse: core.ToolUse{ID: "u3", Name: "third", Arguments: "{}"}},
		),
		textReply("Done."),
	)
	caller := &recordingCaller{content: "ok"}

	d := New(llm, caller, nil)

	_, err := d.Run(context.Background(), "note this")
	require.NoError(t, err)

	require.Len(t, caller.calls, 1)
	assert.Equal(t, "first", caller.calls[0].name)
}

func TestRun_ResultAppendedBeforeNextEngineCall(t *testing.T) {
	llm := model.NewScriptedModel(
		toolReply(core.ToolUsePart{ToolUse: core.ToolUse{ID: "u1", Name: "update_page", Arguments: "{}"}}),
		textReply("Done."),
	)
	caller := &recordingCaller{content: "payload"}

	d := New(llm, caller, nil)

	_, err := d.Run(context.Background(), "note this")
	require.NoError(t, err)

	reqs := llm.Requests()
	require.Len(t, reqs, 2)

	second := reqs[1].Messages
	require.Len(t, second, 3)
	last := second[2]
	assert.Equal(t, core.RoleUser, last.Role)
	rp, ok := last.Parts[0].(core.ToolResultPart)
	require.True(t, ok)
	assert.Equal(t, "payload", rp.ToolResult.Content)
}

func TestRun_ToolErrorPropagatesUnchanged(t *testing.T) {
	callErr := errors.New("tool exploded")
	llm := model.NewScriptedModel(
		toolReply(core.ToolUsePart{ToolUse: core.ToolUse{ID: "u1", Name: "update_page", Arguments: "{}"}}),
	)
	caller := &recordingCaller{err: callErr}

	d := New(llm, caller, nil)

	_, err := d.Run(context.Background(), "note this")
	require.Error(t, err)
	assert.Same(t, callErr, err)
	assert.Equal(t, 1, llm.Calls()) // no further engine call after the failure
}

func TestRun_EngineErrorWrapped(t *testing.T) {
	llm := model.NewScriptedModel() // exhausted immediately
	caller := &recordingCaller{}

	d := New(llm, caller, nil)

	_, err := d.Run(context.Background(), "note this")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reasoning engine")
}

func TestRun_LoopExceeded(t *testing.T) {
	responses := make([]model.Response, 3)
	for i := range responses {
		responses[i] = toolReply(core.ToolUsePart{ToolUse: core.ToolUse{Name: "update_page", Arguments: "{}"}})
	}
	llm := model.NewScriptedModel(responses...)
	caller := &recordingCaller{content: "ok"}

	d := New(llm, caller, nil, func(o *Options) {
		o.MaxRounds = 3
	})

	_, err := d.Run(context.Background(), "note this")
	require.Error(t, err)

	var loopErr *LoopExceededError
	require.ErrorAs(t, err, &loopErr)
	assert.Equal(t, 3, loopErr.Rounds)
	assert.Len(t, caller.calls, 3)
}

func TestRun_InvalidArgumentsAbort(t *testing.T) {
	llm := model.NewScriptedModel(
		toolReply(core.ToolUsePart{ToolUse: core.ToolUse{Name: "update_page", Arguments: "{broken"}}),
	)
	caller := &recordingCaller{content: "ok"}

	d := New(llm, caller, nil)

	_, err := d.Run(context.Background(), "note this")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding arguments")
	assert.Empty(t, caller.calls)
}

func TestRun_MissingInvocationIDGetsGenerated(t *testing.T) {
	llm := model.NewScriptedModel(
		toolReply(core.ToolUsePart{ToolUse: core.ToolUse{Name: "update_page", Arguments: "{}"}}),
		textReply("Done."),
	)
	caller := &recordingCaller{content: "ok"}

	d := New(llm, caller, nil)

	res, err := d.Run(context.Background(), "note this")
	require.NoError(t, err)

	rp, ok := res.History[2].Parts[0].(core.ToolResultPart)
	require.True(t, ok)
	assert.NotEmpty(t, rp.ToolResult.ID)
}

func TestRun_ContextCancelled(t *testing.T) {
	llm := model.NewScriptedModel(textReply("never used"))
	caller := &recordingCaller{}

	d := New(llm, caller, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Run(ctx, "note this")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, llm.Calls())
}
