package router

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchArgs struct {
	Query string   `json:"query" jsonschema:"description=Text to search for"`
	Limit int      `json:"limit,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

func searchTool(opts ...ToolOption) ToolEntry {
	return NewTool("search", func(ctx context.Context, a searchArgs) ([]mcp.ContentBlock, error) {
		return []mcp.ContentBlock{Text(a.Query)}, nil
	}, opts...)
}

func TestNewTool_ReflectsSchema(t *testing.T) {
	entry := searchTool(WithToolDescription("finds things"))
	d := entry.Descriptor

	assert.Equal(t, "search", d.Name)
	assert.Equal(t, "finds things", d.Description)
	assert.Equal(t, "object", d.InputSchema.Type)
	assert.Equal(t, []string{"query"}, d.InputSchema.Required)
	require.NotNil(t, d.InputSchema.AdditionalProperties)
	assert.False(t, *d.InputSchema.AdditionalProperties)

	q := d.InputSchema.Properties["query"]
	assert.Equal(t, "string", q.Type)
	assert.Equal(t, "Text to search for", q.Description)
	assert.Equal(t, "integer", d.InputSchema.Properties["limit"].Type)
	tags := d.InputSchema.Properties["tags"]
	assert.Equal(t, "array", tags.Type)
	require.NotNil(t, tags.Items)
	assert.Equal(t, "string", tags.Items.Type)
}

func TestNewTool_EmptyArgsSchema(t *testing.T) {
	entry := NewTool("noop", func(ctx context.Context, _ emptyArgs) ([]mcp.ContentBlock, error) {
		return nil, nil
	}, WithToolAllowAdditionalProperties(true))

	b, err := json.Marshal(entry.Descriptor.InputSchema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{},"required":[]}`, string(b))
}

func TestNewTool_UnnamedArgumentTypes(t *testing.T) {
	ctx := context.Background()

	anon := NewTool("anon", func(ctx context.Context, _ struct{}) ([]mcp.ContentBlock, error) {
		return []mcp.ContentBlock{Text("ok")}, nil
	})
	assert.Equal(t, "object", anon.Descriptor.InputSchema.Type)
	assert.Empty(t, anon.Descriptor.InputSchema.Properties)
	require.NotNil(t, anon.Descriptor.InputSchema.AdditionalProperties)
	assert.False(t, *anon.Descriptor.InputSchema.AdditionalProperties)
	content, err := anon.Handler(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", content[0].Text)

	inline := NewTool("inline", func(ctx context.Context, a struct {
		Name string `json:"name"`
	}) ([]mcp.ContentBlock, error) {
		return []mcp.ContentBlock{Text(a.Name)}, nil
	})
	assert.Equal(t, "string", inline.Descriptor.InputSchema.Properties["name"].Type)
	assert.Equal(t, []string{"name"}, inline.Descriptor.InputSchema.Required)
	content, err = inline.Handler(ctx, json.RawMessage(`{"name":"bae"}`))
	require.NoError(t, err)
	assert.Equal(t, "bae", content[0].Text)

	m := NewTool("map", func(ctx context.Context, a map[string]any) ([]mcp.ContentBlock, error) {
		return []mcp.ContentBlock{Text(fmt.Sprint(len(a)))}, nil
	})
	assert.Equal(t, "object", m.Descriptor.InputSchema.Type)
	assert.Nil(t, m.Descriptor.InputSchema.AdditionalProperties)
	content, err = m.Handler(ctx, json.RawMessage(`{"a":1,"b":2}`))
	require.NoError(t, err)
	assert.Equal(t, "2", content[0].Text)

	str := NewTool("str", func(ctx context.Context, _ string) ([]mcp.ContentBlock, error) {
		return nil, nil
	})
	assert.Equal(t, "object", str.Descriptor.InputSchema.Type)
	assert.Empty(t, str.Descriptor.InputSchema.Properties)
}

func TestNewTool_Decoding(t *testing.T) {
	entry := searchTool()
	ctx := context.Background()

	content, err := entry.Handler(ctx, json.RawMessage(`{"query":"go"}`))
	require.NoError(t, err)
	assert.Equal(t, "go", content[0].Text)

	_, err = entry.Handler(ctx, nil)
	assert.ErrorIs(t, err, ErrExecution)
	assert.Contains(t, err.Error(), `missing required argument "query"`)

	_, err = entry.Handler(ctx, json.RawMessage(`{"limit":3}`))
	assert.ErrorIs(t, err, ErrExecution)

	_, err = entry.Handler(ctx, json.RawMessage(`{"query":"go","bogus":true}`))
	assert.ErrorIs(t, err, ErrExecution)

	_, err = entry.Handler(ctx, json.RawMessage(`{"query":42}`))
	assert.ErrorIs(t, err, ErrExecution)
}

func TestNewTool_AllowAdditionalProperties(t *testing.T) {
	entry := searchTool(WithToolAllowAdditionalProperties(true))
	assert.Nil(t, entry.Descriptor.InputSchema.AdditionalProperties)

	content, err := entry.Handler(context.Background(), json.RawMessage(`{"query":"go","bogus":true}`))
	require.NoError(t, err)
	assert.Equal(t, "go", content[0].Text)
}

func TestNewTool_EmptyArgumentsAccepted(t *testing.T) {
	called := false
	entry := NewTool("noop", func(ctx context.Context, _ emptyArgs) ([]mcp.ContentBlock, error) {
		called = true
		return nil, nil
	})
	for _, raw := range []json.RawMessage{nil, json.RawMessage(`null`), json.RawMessage(` `), json.RawMessage(`{}`)} {
		called = false
		_, err := entry.Handler(context.Background(), raw)
		require.NoError(t, err, string(raw))
		assert.True(t, called)
	}
}

func TestContentHelpers(t *testing.T) {
	assert.Equal(t, mcp.ContentBlock{Type: mcp.ContentTypeText, Text: "x"}, Text("x"))

	img := Blob([]byte("abc"), "image/png")
	assert.Equal(t, mcp.ContentTypeImage, img.Type)
	assert.Equal(t, "YWJj", img.Data)
	assert.Equal(t, mcp.ContentTypeAudio, Blob(nil, "audio/wav").Type)

	s, err := Structured(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, s.Text)
	assert.Equal(t, "application/json", s.MimeType)
}
