package dispatch

import (
	"context"
	"errors"

	"github.com/knowledgebae/knowledge-bae-mcp/internal/jsonrpc"
	"github.com/knowledgebae/knowledge-bae-mcp/router"
)

// Error kinds carried in error.data.kind.
const (
	KindNotFound           = "not_found"
	KindCapabilityDisabled = "capability_disabled"
	KindExecutionFailure   = "execution_failure"
	KindInvalidParams      = "invalid_params"
	KindCancelled          = "cancelled"
	KindInternal           = "internal"
)

// rpcError translates a domain error into a JSON-RPC error object. The
// message of domain errors is surfaced verbatim; anything unrecognised is
// reported as an internal error carrying the error text.
func rpcError(err error) *jsonrpc.Error {
	var (
		notFound *router.NotFoundError
		disabled *router.CapabilityDisabledError
		execErr  *router.ExecutionError
	)
	switch {
	case errors.As(err, &notFound):
		code := jsonrpc.ErrorCodeInvalidParams
		if notFound.Category == router.CategoryResource {
			code = jsonrpc.ErrorCodeResourceNotFound
		}
		return newError(code, notFound.Error(), KindNotFound)
	case errors.As(err, &disabled):
		return newError(jsonrpc.ErrorCodeMethodNotFound, disabled.Error(), KindCapabilityDisabled)
	case errors.As(err, &execErr):
		return newError(jsonrpc.ErrorCodeInternalError, execErr.Error(), KindExecutionFailure)
	case errors.Is(err, ErrInvalidInvocation):
		return newError(jsonrpc.ErrorCodeInvalidParams, err.Error(), KindInvalidParams)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newError(jsonrpc.ErrorCodeRequestCancelled, "request cancelled", KindCancelled)
	default:
		return newError(jsonrpc.ErrorCodeInternalError, err.Error(), KindInternal)
	}
}

func newError(code jsonrpc.ErrorCode, message, kind string) *jsonrpc.Error {
	return &jsonrpc.Error{Code: code, Message: message, Data: jsonrpc.ErrorData{Kind: kind}}
}

func invalidParams(message string) *jsonrpc.Error {
	return newError(jsonrpc.ErrorCodeInvalidParams, message, KindInvalidParams)
}

func errorResponse(id *jsonrpc.RequestID, e *jsonrpc.Error) *jsonrpc.Response {
	return jsonrpc.NewErrorResponse(id, e.Code, e.Message, e.Data)
}
