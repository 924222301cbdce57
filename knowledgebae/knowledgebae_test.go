package knowledgebae

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/knowledgebae/knowledge-bae-mcp/dispatch"
	"github.com/knowledgebae/knowledge-bae-mcp/internal/jsonrpc"
	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
	"github.com/knowledgebae/knowledge-bae-mcp/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	r := New()
	assert.Equal(t, "knowledge-bae", r.Name())
	assert.Equal(t, Instructions, r.Instructions())

	b, err := json.Marshal(r.Capabilities().ServerCapabilities())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tools": {"listChanged": false},
		"resources": {"subscribe": false, "listChanged": false},
		"prompts": {"listChanged": false}
	}`, string(b))
}

func TestListTools(t *testing.T) {
	tools := New().ListTools()
	require.Len(t, tools, 1)

	b, err := json.Marshal(tools[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "hello_world",
		"description": "A simple hello world tool",
		"inputSchema": {"type": "object", "properties": {}, "required": []}
	}`, string(b))
}

func TestCallHelloWorld(t *testing.T) {
	r := New()
	for _, args := range []json.RawMessage{nil, json.RawMessage(`{}`), json.RawMessage(`{"ignored":1}`)} {
		content, err := r.CallTool(context.Background(), HelloWorldTool, args)
		require.NoError(t, err, string(args))
		assert.Equal(t, []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "Hello World from the tool!"}}, content)
	}
}

func TestCallNonexistentTool(t *testing.T) {
	_, err := New().CallTool(context.Background(), "nonexistent", nil)
	require.ErrorIs(t, err, router.ErrNotFound)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestPrompts(t *testing.T) {
	r := New()
	prompts := r.ListPrompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, mcp.Prompt{
		Name:        "hello_username",
		Description: "A prompt that greets the user by name",
		Arguments: []mcp.PromptArgument{{
			Name:        "username",
			Description: "The name of the user to greet",
			Required:    true,
		}},
	}, prompts[0])

	text, err := r.GetPrompt(context.Background(), HelloUsernamePrompt)
	require.NoError(t, err)
	assert.Equal(t, "Hello {username}", text)

	_, err = r.GetPrompt(context.Background(), "hello_world")
	assert.ErrorIs(t, err, router.ErrNotFound)
}

func TestResourcesEmpty(t *testing.T) {
	r := New()
	assert.Empty(t, r.ListResources())

	_, err := r.ReadResource(context.Background(), "any-uri")
	var nf *router.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "any-uri", nf.Identifier)
	assert.Contains(t, err.Error(), "any-uri")
}

func TestListingsAreStable(t *testing.T) {
	r := New()
	assert.Equal(t, r.ListTools(), r.ListTools())
	assert.Equal(t, r.ListPrompts(), r.ListPrompts())
	assert.Equal(t, r.ListResources(), r.ListResources())
}

func TestThroughAdapter(t *testing.T) {
	a := dispatch.New(New())
	call := func(method, params string) *jsonrpc.Response {
		resp, err := a.HandleRequest(context.Background(), &jsonrpc.Request{
			JSONRPCVersion: jsonrpc.ProtocolVersion,
			Method:         method,
			Params:         json.RawMessage(params),
			ID:             jsonrpc.NewRequestID("r1"),
		})
		require.NoError(t, err)
		return resp
	}

	resp := call("tools/call", `{"name":"hello_world","arguments":{}}`)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"Hello World from the tool!"}]}`, string(resp.Result))

	resp = call("prompts/get", `{"name":"hello_username","arguments":{"username":"ada"}}`)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{
		"description": "A prompt that greets the user by name",
		"messages": [{"role": "user", "content": {"type": "text", "text": "Hello {username}"}}]
	}`, string(resp.Result))

	resp = call("resources/read", `{"uri":"any-uri"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeResourceNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "any-uri")
}
