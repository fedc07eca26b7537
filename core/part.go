package core

// Part represents a polymorphic segment of role-based message content.
// Concrete part types implement the unexported isPart marker enabling a
// closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string // Plain UTF-8 text
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// ToolUse describes a tool invocation requested by the reasoning engine.
type ToolUse struct {
	ID        string `json:"id"`                  // Correlation id linking the call to its result
	Name      string `json:"name"`                // Tool name from the session catalog
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument object
}

// ToolUsePart wraps a ToolUse as a content part.
type ToolUsePart struct {
	ToolUse ToolUse
}

// isPart implements the Part interface for ToolUsePart.
func (ToolUsePart) isPart() {}

// ToolResult describes the outcome of an executed tool invocation.
type ToolResult struct {
	ID      string `json:"id"`                // Matches the originating ToolUse ID
	Content string `json:"content,omitempty"` // Flattened result payload
	IsError bool   `json:"is_error,omitempty"`
}

// ToolResultPart wraps a ToolResult as a content part.
type ToolResultPart struct {
	ToolResult ToolResult
}

// isPart implements the Part interface for ToolResultPart.
func (ToolResultPart) isPart() {}
