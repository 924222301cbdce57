package router

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyArgs struct{}

func helloTool() ToolEntry {
	return NewTool("hello", func(ctx context.Context, _ emptyArgs) ([]mcp.ContentBlock, error) {
		return []mcp.ContentBlock{Text("hi")}, nil
	}, WithToolDescription("says hi"), WithToolAllowAdditionalProperties(true))
}

func TestRegistry_ListOrderFollowsRegistration(t *testing.T) {
	noop := func(ctx context.Context, _ emptyArgs) ([]mcp.ContentBlock, error) { return nil, nil }
	reg := MustNewRegistry(
		WithTools(NewTool("b", noop), NewTool("a", noop)),
		WithTools(NewTool("c", noop)),
	)

	var names []string
	for _, tool := range reg.ListTools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
}

func TestRegistry_ListingIsSnapshot(t *testing.T) {
	reg := MustNewRegistry(
		WithTools(helloTool()),
		WithPrompts(TemplatePrompt(mcp.Prompt{
			Name:      "p",
			Arguments: []mcp.PromptArgument{{Name: "x", Required: true}},
		}, "{x}")),
	)

	tools := reg.ListTools()
	tools[0].Name = "mutated"
	tools[0].InputSchema.Properties["injected"] = mcp.SchemaProperty{Type: "string"}
	prompts := reg.ListPrompts()
	prompts[0].Arguments[0].Name = "mutated"

	assert.Equal(t, "hello", reg.ListTools()[0].Name)
	assert.Empty(t, reg.ListTools()[0].InputSchema.Properties)
	assert.Equal(t, "x", reg.ListPrompts()[0].Arguments[0].Name)
}

func TestRegistry_RejectsInvalidEntries(t *testing.T) {
	_, err := NewRegistry(WithTools(helloTool(), helloTool()))
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	_, err = NewRegistry(WithResources(
		TextResource(mcp.Resource{URI: "file:///a", Name: "a"}, "1"),
		TextResource(mcp.Resource{URI: "file:///a", Name: "b"}, "2"),
	))
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	_, err = NewRegistry(WithPrompts(TemplatePrompt(mcp.Prompt{}, "x")))
	assert.ErrorIs(t, err, ErrEmptyIdentifier)

	_, err = NewRegistry(WithTools(ToolEntry{Descriptor: mcp.Tool{Name: "nohandler"}}))
	assert.Error(t, err)

	assert.Panics(t, func() { MustNewRegistry(WithTools(helloTool(), helloTool())) })
}

func TestRegistry_SameIdentifierAcrossCategories(t *testing.T) {
	_, err := NewRegistry(
		WithTools(helloTool()),
		WithPrompts(TemplatePrompt(mcp.Prompt{Name: "hello"}, "Hello")),
	)
	assert.NoError(t, err)
}

func TestRegistry_CallTool(t *testing.T) {
	reg := MustNewRegistry(WithTools(helloTool()))

	content, err := reg.CallTool(context.Background(), "hello", nil)
	require.NoError(t, err)
	require.Len(t, content, 1)
	assert.Equal(t, "hi", content[0].Text)

	_, err = reg.CallTool(context.Background(), "nonexistent", nil)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, err.Error(), "nonexistent")

	// Exact match only.
	_, err = reg.CallTool(context.Background(), "Hello", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_CallToolWrapsHandlerErrors(t *testing.T) {
	cause := errors.New("boom")
	reg := MustNewRegistry(WithTools(
		RawTool(mcp.Tool{Name: "fail"}, func(ctx context.Context, _ json.RawMessage) ([]mcp.ContentBlock, error) {
			return nil, cause
		}),
		RawTool(mcp.Tool{Name: "slow"}, func(ctx context.Context, _ json.RawMessage) ([]mcp.ContentBlock, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}),
		RawTool(mcp.Tool{Name: "silent"}, func(ctx context.Context, _ json.RawMessage) ([]mcp.ContentBlock, error) {
			return nil, nil
		}),
	))

	_, err := reg.CallTool(context.Background(), "fail", nil)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "fail", execErr.Tool)
	assert.ErrorIs(t, err, cause)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = reg.CallTool(ctx, "slow", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrExecution)

	content, err := reg.CallTool(context.Background(), "silent", nil)
	require.NoError(t, err)
	assert.NotNil(t, content)
	assert.Empty(t, content)
}

func TestRegistry_RawToolDefaultsSchema(t *testing.T) {
	entry := RawTool(mcp.Tool{Name: "raw"}, func(ctx context.Context, _ json.RawMessage) ([]mcp.ContentBlock, error) {
		return nil, nil
	})
	assert.Equal(t, "object", entry.Descriptor.InputSchema.Type)
}

func TestRegistry_Resources(t *testing.T) {
	empty := MustNewRegistry()
	assert.Empty(t, empty.ListResources())
	_, err := empty.ReadResource(context.Background(), "any-uri")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, CategoryResource, nf.Category)
	assert.Equal(t, "any-uri", nf.Identifier)

	reg := MustNewRegistry(WithResources(
		TextResource(mcp.Resource{URI: "docs://readme", Name: "readme"}, "# Readme"),
	))
	text, err := reg.ReadResource(context.Background(), "docs://readme")
	require.NoError(t, err)
	assert.Equal(t, "# Readme", text)
	require.Len(t, reg.ListResources(), 1)
}

func TestRegistry_GetPromptReturnsRawTemplate(t *testing.T) {
	reg := MustNewRegistry(WithPrompts(TemplatePrompt(mcp.Prompt{
		Name:      "greet",
		Arguments: []mcp.PromptArgument{{Name: "username", Required: true}},
	}, "Hello {username}")))

	text, err := reg.GetPrompt(context.Background(), "greet")
	require.NoError(t, err)
	assert.Equal(t, "Hello {username}", text)

	_, err = reg.GetPrompt(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestRegistry_ConcurrentCallsAreIndependent(t *testing.T) {
	reg := MustNewRegistry(WithTools(helloTool()))

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content, err := reg.CallTool(context.Background(), "hello", nil)
			if err == nil && (len(content) != 1 || content[0].Text != "hi") {
				err = errors.New("unexpected content")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestStatic_Identity(t *testing.T) {
	caps := NewCapabilities(WithToolsEnabled(true))
	s := NewStatic("srv", "do things", caps, nil)
	assert.Equal(t, "srv", s.Name())
	assert.Equal(t, "do things", s.Instructions())
	assert.True(t, s.Capabilities().Tools())
	assert.Empty(t, s.ListTools())
	assert.Empty(t, s.ListPrompts())
}

func TestRegistry_ValidatesDescriptors(t *testing.T) {
	noop := func(ctx context.Context, _ json.RawMessage) ([]mcp.ContentBlock, error) { return nil, nil }

	_, err := NewRegistry(WithTools(RawTool(mcp.Tool{
		Name:        "bad",
		InputSchema: mcp.ToolInputSchema{Type: "object", Required: []string{"ghost"}},
	}, noop)))
	assert.ErrorContains(t, err, "ghost")

	_, err = NewRegistry(WithPrompts(TemplatePrompt(mcp.Prompt{
		Name:      "p",
		Arguments: []mcp.PromptArgument{{Name: "x"}, {Name: "x"}},
	}, "")))
	assert.ErrorContains(t, err, "duplicate")

	reg := MustNewRegistry(WithTools(RawTool(mcp.Tool{
		Name:        "loose",
		InputSchema: mcp.ToolInputSchema{Type: "object"},
	}, noop)))
	schema := reg.ListTools()[0].InputSchema
	assert.NotNil(t, schema.Properties)
	assert.NotNil(t, schema.Required)
}
