package mcp

import (
	"github.com/hupe1980/jobtrack/model"
)

// ToolDescriptor describes one callable operation a session exposes.
// Immutable once fetched.
type ToolDescriptor struct {
	Name        string         // Unique within a session
	Description string         // Human description provided to the reasoning engine
	InputSchema map[string]any // JSON schema for the argument object
}

// Catalog is a snapshot of the tools a session exposes, fetched once per
// session and reused for all reasoning-engine calls. Lookups go through an
// index built at construction time rather than scanning the slice.
type Catalog struct {
	tools []ToolDescriptor
	index map[string]int // name -> position in tools
}

// NewCatalog builds a catalog from descriptors, keeping the first descriptor
// for a duplicated name.
func NewCatalog(tools []ToolDescriptor) *Catalog {
	c := &Catalog{
		tools: make([]ToolDescriptor, len(tools)),
		index: make(map[string]int, len(tools)),
	}
	copy(c.tools, tools)
	for i, t := range c.tools {
		if _, exists := c.index[t.Name]; !exists {
			c.index[t.Name] = i
		}
	}
	return c
}

// Tools returns a defensive copy of the descriptor list.
func (c *Catalog) Tools() []ToolDescriptor {
	out := make([]ToolDescriptor, len(c.tools))
	copy(out, c.tools)
	return out
}

// Get returns the descriptor for a tool name.
func (c *Catalog) Get(name string) (ToolDescriptor, bool) {
	i, ok := c.index[name]
	if !ok {
		return ToolDescriptor{}, false
	}
	return c.tools[i], true
}

// Len returns the number of tools in the catalog.
func (c *Catalog) Len() int { return len(c.tools) }

// Definitions converts the catalog into the tool definitions the model
// layer sends to the reasoning engine.
func (c *Catalog) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(c.tools))
	for i, t := range c.tools {
		defs[i] = model.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}
	}
	return defs
}
