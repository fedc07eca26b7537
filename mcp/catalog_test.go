package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDescriptors() []ToolDescriptor {
	return []ToolDescriptor{
		{
			Name:        "search_pages",
			Description: "Search workspace pages",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"query": map[string]any{"type": "string"}},
				"required":   []string{"query"},
			},
		},
		{Name: "update_page", Description: "Update a page"},
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := NewCatalog(sampleDescriptors())

	assert.Equal(t, 2, c.Len())

	tool, ok := c.Get("search_pages")
	require.True(t, ok)
	assert.Equal(t, "Search workspace pages", tool.Description)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCatalog_DuplicateNamesFirstWins(t *testing.T) {
	c := NewCatalog([]ToolDescriptor{
		{Name: "dup", Description: "first"},
		{Name: "dup", Description: "second"},
	})

	tool, ok := c.Get("dup")
	require.True(t, ok)
	assert.Equal(t, "first", tool.Description)
	assert.Equal(t, 2, c.Len())
}

func TestCatalog_ToolsIsCopy(t *testing.T) {
	c := NewCatalog(sampleDescriptors())

	tools := c.Tools()
	tools[0].Name = "tampered"

	tool, ok := c.Get("search_pages")
	require.True(t, ok)
	assert.Equal(t, "search_pages", tool.Name)
}

func TestCatalog_Definitions(t *testing.T) {
	c := NewCatalog(sampleDescriptors())

	defs := c.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "search_pages", defs[0].Name)
	assert.Equal(t, "Search workspace pages", defs[0].Description)
	assert.Equal(t, "object", defs[0].InputSchema["type"])
}
