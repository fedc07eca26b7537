package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserText(t *testing.T) {
	msg := NewUserText("hello")
	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "hello", msg.Text())
}

func TestNewToolResultMessage(t *testing.T) {
	msg := NewToolResultMessage(ToolResult{ID: "u1", Content: "ok"})

	assert.Equal(t, RoleUser, msg.Role)
	require.Len(t, msg.Parts, 1)
	rp, ok := msg.Parts[0].(ToolResultPart)
	require.True(t, ok)
	assert.Equal(t, "u1", rp.ToolResult.ID)
}

func TestMessage_Text_ConcatenatesTextPartsOnly(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Parts: []Part{
			TextPart{Text: "one "},
			ToolUsePart{ToolUse: ToolUse{Name: "update_page"}},
			TextPart{Text: "two"},
		},
	}
	assert.Equal(t, "one two", msg.Text())
}

func TestMessage_ToolUses(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Parts: []Part{
			ToolUsePart{ToolUse: ToolUse{ID: "u1", Name: "first"}},
			TextPart{Text: "middle"},
			ToolUsePart{ToolUse: ToolUse{ID: "u2", Name: "second"}},
		},
	}

	uses := msg.ToolUses()
	require.Len(t, uses, 2)
	assert.Equal(t, "first", uses[0].Name)
	assert.Equal(t, "second", uses[1].Name)

	first, ok := msg.FirstToolUse()
	require.True(t, ok)
	assert.Equal(t, "u1", first.ID)
}

func TestMessage_FirstToolUse_None(t *testing.T) {
	msg := NewUserText("plain")
	_, ok := msg.FirstToolUse()
	assert.False(t, ok)
}
