package validation

import (
	"testing"

	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolInputSchema_Normalizes(t *testing.T) {
	s := &mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]mcp.SchemaProperty{
			"a": {Type: "string"},
			"b": {Type: "integer"},
		},
		Required: []string{"a", "b", "a"},
	}
	require.NoError(t, ToolInputSchema(s))
	assert.Equal(t, []string{"a", "b"}, s.Required)

	empty := &mcp.ToolInputSchema{Type: "object"}
	require.NoError(t, ToolInputSchema(empty))
	assert.NotNil(t, empty.Properties)
	assert.NotNil(t, empty.Required)
}

func TestToolInputSchema_Rejects(t *testing.T) {
	assert.Error(t, ToolInputSchema(nil))
	assert.Error(t, ToolInputSchema(&mcp.ToolInputSchema{Type: "string"}))
	assert.ErrorContains(t, ToolInputSchema(&mcp.ToolInputSchema{
		Type:     "object",
		Required: []string{"ghost"},
	}), "ghost")
	assert.ErrorContains(t, ToolInputSchema(&mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]mcp.SchemaProperty{
			"tags": {Type: "array", Items: &mcp.SchemaProperty{Type: "string", Enum: []any{"x", "x"}}},
		},
	}), "tags[]")
}

func TestPromptArguments(t *testing.T) {
	assert.NoError(t, PromptArguments(nil))
	assert.NoError(t, PromptArguments([]mcp.PromptArgument{{Name: "a"}, {Name: "b"}}))
	assert.Error(t, PromptArguments([]mcp.PromptArgument{{Name: ""}}))
	assert.ErrorContains(t, PromptArguments([]mcp.PromptArgument{{Name: "a"}, {Name: "a"}}), "duplicate")
}
