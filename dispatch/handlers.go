package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/knowledgebae/knowledge-bae-mcp/internal/jsonrpc"
	"github.com/knowledgebae/knowledge-bae-mcp/internal/logctx"
	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
	"github.com/knowledgebae/knowledge-bae-mcp/router"
)

// TextMimeType is the mime type reported for resource contents.
const TextMimeType = "text/plain"

// HandleRequest serves a single JSON-RPC request. Protocol and domain
// failures are returned as error responses; the error return is reserved for
// failures to encode a result.
func (a *Adapter) HandleRequest(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	switch mcp.Method(req.Method) {
	case mcp.InitializeMethod:
		return a.handleInitialize(ctx, req)
	case mcp.PingMethod:
		return jsonrpc.NewResultResponse(req.ID, mcp.EmptyResult{})
	case mcp.ToolsListMethod:
		return a.handleToolsList(ctx, req)
	case mcp.ToolsCallMethod:
		return a.handleToolsCall(ctx, req)
	case mcp.ResourcesListMethod:
		return a.handleResourcesList(ctx, req)
	case mcp.ResourcesTemplatesListMethod:
		return a.handleResourcesTemplatesList(ctx, req)
	case mcp.ResourcesReadMethod:
		return a.handleResourcesRead(ctx, req)
	case mcp.PromptsListMethod:
		return a.handlePromptsList(ctx, req)
	case mcp.PromptsGetMethod:
		return a.handlePromptsGet(ctx, req)
	case mcp.LoggingSetLevelMethod:
		if a.levelVar != nil {
			return a.handleSetLevel(ctx, req)
		}
	}

	a.log.InfoContext(ctx, "dispatch.handle_request.unsupported", slog.String("method", req.Method))
	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found: "+req.Method, nil), nil
}

// decodeParams unmarshals optional params into dst. Absent or null params
// leave dst untouched.
func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func (a *Adapter) handleInitialize(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.InitializeRequest
	if err := decodeParams(req.Params, &params); err != nil {
		a.log.InfoContext(ctx, "dispatch.handle_request.invalid", slog.String("method", req.Method), slog.String("err", err.Error()))
		return errorResponse(req.ID, invalidParams("invalid params")), nil
	}
	res, err := a.Negotiate(ctx, &params)
	if err != nil {
		a.log.ErrorContext(ctx, "dispatch.handle_request.fail", slog.String("method", req.Method), slog.String("err", err.Error()))
		return errorResponse(req.ID, rpcError(err)), nil
	}
	return jsonrpc.NewResultResponse(req.ID, res)
}

// listPage runs the shared listing path: capability check, params decoding
// and paging.
func listPage[T any](ctx context.Context, a *Adapter, req *jsonrpc.Request, cat router.Category, list func() []T) (Page[T], *jsonrpc.Error) {
	start := time.Now()
	log := a.log.With(slog.String("method", req.Method))

	var params mcp.PaginatedRequest
	if err := decodeParams(req.Params, &params); err != nil {
		log.InfoContext(ctx, "dispatch.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return Page[T]{}, invalidParams("invalid params")
	}
	if !a.router.Capabilities().Enabled(cat) {
		err := &router.CapabilityDisabledError{Category: cat}
		log.InfoContext(ctx, "dispatch.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return Page[T]{}, rpcError(err)
	}

	page, err := paginate(list(), params.Cursor, a.pageSize)
	if err != nil {
		log.InfoContext(ctx, "dispatch.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return Page[T]{}, invalidParams(err.Error())
	}

	log.InfoContext(ctx, "dispatch.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("count", len(page.Items)))
	return page, nil
}

func nextCursor(c *string) string {
	if c == nil {
		return ""
	}
	return *c
}

func (a *Adapter) handleToolsList(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	page, rpcErr := listPage(ctx, a, req, router.CategoryTool, a.router.ListTools)
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr), nil
	}
	res := &mcp.ListToolsResult{Tools: page.Items}
	res.NextCursor = nextCursor(page.NextCursor)
	return jsonrpc.NewResultResponse(req.ID, res)
}

func (a *Adapter) handleResourcesList(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	page, rpcErr := listPage(ctx, a, req, router.CategoryResource, a.router.ListResources)
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr), nil
	}
	res := &mcp.ListResourcesResult{Resources: page.Items}
	res.NextCursor = nextCursor(page.NextCursor)
	return jsonrpc.NewResultResponse(req.ID, res)
}

func (a *Adapter) handleResourcesTemplatesList(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	noTemplates := func() []mcp.ResourceTemplate { return nil }
	page, rpcErr := listPage(ctx, a, req, router.CategoryResource, noTemplates)
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr), nil
	}
	return jsonrpc.NewResultResponse(req.ID, &mcp.ListResourceTemplatesResult{ResourceTemplates: page.Items})
}

func (a *Adapter) handlePromptsList(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	page, rpcErr := listPage(ctx, a, req, router.CategoryPrompt, a.router.ListPrompts)
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr), nil
	}
	res := &mcp.ListPromptsResult{Prompts: page.Items}
	res.NextCursor = nextCursor(page.NextCursor)
	return jsonrpc.NewResultResponse(req.ID, res)
}

// invoke runs Dispatch with logging shared by the call/read/get handlers.
func (a *Adapter) invoke(ctx context.Context, method string, inv Invocation) (Result, error) {
	start := time.Now()
	log := a.log.With(slog.String("method", method))
	ctx = logctx.WithInvocationData(ctx, &logctx.InvocationData{Category: inv.Category.String(), Identifier: inv.Identifier})

	res, err := a.Dispatch(ctx, inv)
	dur := slog.Int64("dur_ms", time.Since(start).Milliseconds())
	switch {
	case err == nil:
		log.InfoContext(ctx, "dispatch.handle_request.ok", dur)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.InfoContext(ctx, "dispatch.handle_request.cancelled", dur)
	case errors.Is(err, router.ErrCapabilityDisabled):
		log.InfoContext(ctx, "dispatch.handle_request.unsupported", dur)
	case errors.Is(err, router.ErrNotFound), errors.Is(err, ErrInvalidInvocation):
		log.InfoContext(ctx, "dispatch.handle_request.invalid", slog.String("err", err.Error()), dur)
	default:
		log.ErrorContext(ctx, "dispatch.handle_request.fail", slog.String("err", err.Error()), dur)
	}
	return res, err
}

func (a *Adapter) handleToolsCall(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.CallToolRequestReceived
	if err := json.Unmarshal(req.Params, &params); err != nil {
		a.log.InfoContext(ctx, "dispatch.handle_request.invalid", slog.String("method", req.Method), slog.String("err", err.Error()))
		return errorResponse(req.ID, invalidParams("invalid params")), nil
	}

	res, err := a.invoke(ctx, req.Method, Invocation{
		Category:   router.CategoryTool,
		Identifier: params.Name,
		Arguments:  params.Arguments,
	})
	if err != nil {
		var execErr *router.ExecutionError
		if errors.As(err, &execErr) {
			return jsonrpc.NewResultResponse(req.ID, &mcp.CallToolResult{
				Content: []mcp.ContentBlock{router.Text(execErr.Error())},
				IsError: true,
			})
		}
		return errorResponse(req.ID, rpcError(err)), nil
	}

	return jsonrpc.NewResultResponse(req.ID, &mcp.CallToolResult{Content: res.Content})
}

func (a *Adapter) handleResourcesRead(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.ReadResourceRequest
	if err := json.Unmarshal(req.Params, &params); err != nil {
		a.log.InfoContext(ctx, "dispatch.handle_request.invalid", slog.String("method", req.Method), slog.String("err", err.Error()))
		return errorResponse(req.ID, invalidParams("invalid params")), nil
	}

	res, err := a.invoke(ctx, req.Method, Invocation{
		Category:   router.CategoryResource,
		Identifier: params.URI,
	})
	if err != nil {
		return errorResponse(req.ID, rpcError(err)), nil
	}

	return jsonrpc.NewResultResponse(req.ID, &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{{
			URI:      params.URI,
			MimeType: a.resourceMimeType(params.URI),
			Text:     res.Text,
		}},
	})
}

// resourceMimeType returns the mime type declared by the resource
// descriptor, falling back to text/plain.
func (a *Adapter) resourceMimeType(uri string) string {
	for _, r := range a.router.ListResources() {
		if r.URI == uri && r.MimeType != "" {
			return r.MimeType
		}
	}
	return TextMimeType
}

func (a *Adapter) handlePromptsGet(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.GetPromptRequestReceived
	if err := json.Unmarshal(req.Params, &params); err != nil {
		a.log.InfoContext(ctx, "dispatch.handle_request.invalid", slog.String("method", req.Method), slog.String("err", err.Error()))
		return errorResponse(req.ID, invalidParams("invalid params")), nil
	}

	// Arguments are accepted but not substituted; the template is returned raw.
	res, err := a.invoke(ctx, req.Method, Invocation{
		Category:   router.CategoryPrompt,
		Identifier: params.Name,
	})
	if err != nil {
		return errorResponse(req.ID, rpcError(err)), nil
	}

	var description string
	for _, p := range a.router.ListPrompts() {
		if p.Name == params.Name {
			description = p.Description
			break
		}
	}

	return jsonrpc.NewResultResponse(req.ID, &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{{
			Role:    mcp.RoleUser,
			Content: router.Text(res.Text),
		}},
	})
}

func (a *Adapter) handleSetLevel(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := a.log.With(slog.String("method", req.Method))

	var params mcp.SetLevelRequest
	if err := json.Unmarshal(req.Params, &params); err != nil {
		log.InfoContext(ctx, "dispatch.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return errorResponse(req.ID, invalidParams("invalid params")), nil
	}
	level, err := SlogLevel(params.Level)
	if err != nil {
		log.InfoContext(ctx, "dispatch.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return errorResponse(req.ID, invalidParams(err.Error())), nil
	}
	a.levelVar.Set(level)

	log.InfoContext(ctx, "dispatch.handle_request.ok", slog.String("level", level.String()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return jsonrpc.NewResultResponse(req.ID, mcp.EmptyResult{})
}
