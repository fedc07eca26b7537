package core

// Conversation roles. Tool results travel in user-role messages, matching
// the Messages API contract the reasoning engine enforces.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message holds a role plus ordered heterogeneous parts.
//
// Invariant maintained by the conversation driver: every ToolUsePart that is
// executed is followed, before the next reasoning-engine call, by exactly one
// ToolResultPart carrying the same invocation id.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// NewUserText builds a single-part user message.
func NewUserText(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// NewToolResultMessage builds the user-role message carrying one tool result.
func NewToolResultMessage(result ToolResult) Message {
	return Message{Role: RoleUser, Parts: []Part{ToolResultPart{ToolResult: result}}}
}

// Text concatenates the message's text parts.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// ToolUses returns the tool invocations requested by this message in order.
func (m Message) ToolUses() []ToolUse {
	var uses []ToolUse
	for _, p := range m.Parts {
		if up, ok := p.(ToolUsePart); ok {
			uses = append(uses, up.ToolUse)
		}
	}
	return uses
}

// FirstToolUse returns the first tool invocation in the message, if any.
func (m Message) FirstToolUse() (ToolUse, bool) {
	for _, p := range m.Parts {
		if up, ok := p.(ToolUsePart); ok {
			return up.ToolUse, true
		}
	}
	return ToolUse{}, false
}
