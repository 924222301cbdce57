package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/knowledgebae/knowledge-bae-mcp/dispatch"
	"github.com/knowledgebae/knowledge-bae-mcp/internal/jsonrpc"
	"github.com/knowledgebae/knowledge-bae-mcp/internal/logctx"
	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
)

// ErrAlreadyServing is returned when Serve is called more than once.
var ErrAlreadyServing = errors.New("stdio: handler already serving")

type sessionState int

const (
	stateAwaitingInit sessionState = iota
	stateInitialized
	stateOpen
)

func (s sessionState) String() string {
	switch s {
	case stateAwaitingInit:
		return "awaiting_init"
	case stateInitialized:
		return "initialized"
	case stateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Handler is a single-connection stdio transport that reads newline-delimited
// JSON-RPC messages from an io.Reader and writes responses to an io.Writer.
// By default, it uses os.Stdin and os.Stdout. The peer is identified by a
// UserProvider, which defaults to the current OS user.
//
// The handler is transport-only; it delegates all protocol semantics to the
// provided dispatch.Adapter.
type Handler struct {
	adapter      *dispatch.Adapter
	r            io.Reader
	w            io.Writer
	l            *slog.Logger
	userProvider UserProvider

	serving atomic.Bool
	writeMu sync.Mutex

	mu       sync.Mutex
	state    sessionState
	session  logctx.SessionData
	inflight map[string]*inflightCall
}

type inflightCall struct {
	cancel    context.CancelFunc
	cancelled bool
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(adapter *dispatch.Adapter, opts ...Option) *Handler {
	h := &Handler{
		adapter:      adapter,
		r:            os.Stdin,
		w:            os.Stdout,
		l:            slog.New(slog.DiscardHandler),
		userProvider: OSUserProvider{},
		inflight:     make(map[string]*inflightCall),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Serve runs the stdio event loop until EOF on the reader or the context is
// canceled. It may be called at most once per Handler.
//
// Messages are handled in arrival order, but every request other than
// initialize runs in its own goroutine and responses are written as they
// complete. On EOF Serve waits for in-flight requests to finish and returns
// nil. On context cancellation in-flight requests are cancelled and Serve
// returns ctx.Err(). A read or write failure ends the session with that
// error.
func (h *Handler) Serve(ctx context.Context) error {
	if !h.serving.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}

	start := time.Now()
	userID, err := h.userProvider.CurrentUserID()
	if err != nil {
		h.l.WarnContext(ctx, "stdio.session.user.fail", slog.String("err", err.Error()))
	}

	h.mu.Lock()
	h.session = logctx.SessionData{
		SessionID: uuid.NewString(),
		UserID:    userID,
		State:     h.state.String(),
	}
	h.mu.Unlock()

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(sessCtx)

	lines := make(chan []byte)
	readDone := make(chan error, 1)
	go func() {
		readDone <- h.readLoop(gctx, lines)
	}()

	h.l.InfoContext(h.logContext(gctx), "stdio.session.start")

	var result error
loop:
	for {
		select {
		case line := <-lines:
			h.handleLine(gctx, g, line)
		case err := <-readDone:
			if err != nil && gctx.Err() == nil {
				result = err
				cancel()
			}
			break loop
		case <-gctx.Done():
			break loop
		}
	}

	if werr := g.Wait(); werr != nil && result == nil {
		result = werr
	}
	if err := ctx.Err(); err != nil {
		result = err
	}

	h.l.InfoContext(h.logContext(ctx), "stdio.session.end", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Any("err", result))
	return result
}

// readLoop forwards non-blank lines until EOF or ctx is done.
func (h *Handler) readLoop(ctx context.Context, lines chan<- []byte) error {
	br := bufio.NewReader(h.r)
	for {
		line, err := br.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			select {
			case lines <- trimmed:
			case <-ctx.Done():
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("stdio: read: %w", err)
		}
	}
}

// logContext decorates ctx with the current session data.
func (h *Handler) logContext(ctx context.Context) context.Context {
	h.mu.Lock()
	sd := h.session
	h.mu.Unlock()
	return logctx.WithSessionData(ctx, &sd)
}

func (h *Handler) handleLine(ctx context.Context, g *errgroup.Group, line []byte) {
	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		lctx := h.logContext(ctx)
		if errors.Is(err, jsonrpc.ErrInvalidMessage) {
			h.l.InfoContext(lctx, "stdio.message.invalid", slog.String("err", err.Error()))
			h.writeAsync(ctx, g, jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidRequest, "invalid request", nil))
			return
		}
		h.l.InfoContext(lctx, "stdio.message.parse_error", slog.String("err", err.Error()))
		h.writeAsync(ctx, g, jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "parse error", nil))
		return
	}

	typ := msg.Type()
	switch typ {
	case jsonrpc.TypeResponse:
		// The server never issues requests, so there is nothing to correlate.
		h.l.DebugContext(h.logContext(ctx), "stdio.message.unexpected_response", slog.String("id", msg.ID.String()))
	case jsonrpc.TypeNotification:
		h.handleNotification(ctx, msg.AsRequest())
	case jsonrpc.TypeRequest:
		h.handleRequest(ctx, g, msg.AsRequest())
	}
}

func (h *Handler) handleNotification(ctx context.Context, n *jsonrpc.Request) {
	lctx := logctx.WithRPCMessage(h.logContext(ctx), &logctx.RPCMessage{Method: n.Method, Type: jsonrpc.TypeNotification})

	switch mcp.Method(n.Method) {
	case mcp.InitializedNotificationMethod:
		h.mu.Lock()
		if h.state == stateInitialized {
			h.state = stateOpen
			h.session.State = h.state.String()
		}
		h.mu.Unlock()
		h.l.InfoContext(lctx, "stdio.session.open")
	case mcp.CancelledNotificationMethod:
		var params mcp.CancelledNotification
		if err := json.Unmarshal(n.Params, &params); err != nil {
			h.l.InfoContext(lctx, "stdio.cancel.invalid", slog.String("err", err.Error()))
			return
		}
		var id jsonrpc.RequestID
		if err := json.Unmarshal(params.RequestID, &id); err != nil {
			h.l.InfoContext(lctx, "stdio.cancel.invalid", slog.String("err", err.Error()))
			return
		}
		if h.cancelRequest(id.Key()) {
			h.l.InfoContext(lctx, "stdio.cancel.ok", slog.String("request_id", id.String()), slog.String("reason", params.Reason))
		} else {
			h.l.DebugContext(lctx, "stdio.cancel.unknown", slog.String("request_id", id.String()))
		}
	default:
		h.l.DebugContext(lctx, "stdio.notification.ignored")
	}
}

func (h *Handler) handleRequest(ctx context.Context, g *errgroup.Group, req *jsonrpc.Request) {
	lctx := logctx.WithRPCMessage(h.logContext(ctx), &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: jsonrpc.TypeRequest})

	method := mcp.Method(req.Method)
	h.mu.Lock()
	state := h.state
	h.mu.Unlock()

	switch {
	case method == mcp.InitializeMethod && state != stateAwaitingInit:
		h.l.InfoContext(lctx, "stdio.initialize.duplicate")
		h.writeAsync(ctx, g, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "session already initialized", nil))
		return
	case method == mcp.InitializeMethod:
		h.initialize(lctx, g, req)
		return
	case method != mcp.PingMethod && state == stateAwaitingInit:
		h.l.InfoContext(lctx, "stdio.request.uninitialized")
		h.writeAsync(ctx, g, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "session not initialized", nil))
		return
	}

	key := req.ID.Key()
	reqCtx, reqCancel := context.WithCancel(ctx)
	h.mu.Lock()
	if _, exists := h.inflight[key]; exists {
		h.mu.Unlock()
		reqCancel()
		h.l.InfoContext(lctx, "stdio.request.duplicate_id")
		h.writeAsync(ctx, g, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "duplicate request id", nil))
		return
	}
	call := &inflightCall{cancel: reqCancel}
	h.inflight[key] = call
	h.mu.Unlock()

	g.Go(func() error {
		defer func() {
			reqCancel()
			h.mu.Lock()
			delete(h.inflight, key)
			h.mu.Unlock()
		}()

		resp, err := h.adapter.HandleRequest(reqCtx, req)
		if err != nil {
			h.l.ErrorContext(lctx, "stdio.request.fail", slog.String("err", err.Error()))
			resp = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
		}

		h.mu.Lock()
		cancelled := call.cancelled
		h.mu.Unlock()
		if cancelled || ctx.Err() != nil {
			h.l.InfoContext(lctx, "stdio.request.cancelled")
			return nil
		}
		return h.write(resp)
	})
}

// initialize answers the initialize request inline so that lifecycle state
// transitions follow message order.
func (h *Handler) initialize(ctx context.Context, g *errgroup.Group, req *jsonrpc.Request) {
	var params mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			h.l.InfoContext(ctx, "stdio.initialize.invalid", slog.String("err", err.Error()))
			h.writeAsync(ctx, g, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil))
			return
		}
	}

	res, err := h.adapter.Negotiate(ctx, &params)
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.initialize.fail", slog.String("err", err.Error()))
		h.writeAsync(ctx, g, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil))
		return
	}
	resp, err := jsonrpc.NewResultResponse(req.ID, res)
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.initialize.fail", slog.String("err", err.Error()))
		h.writeAsync(ctx, g, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil))
		return
	}

	h.mu.Lock()
	h.state = stateInitialized
	h.session.State = h.state.String()
	h.session.ClientName = params.ClientInfo.Name
	h.session.ProtocolVersion = res.ProtocolVersion
	h.mu.Unlock()

	h.l.InfoContext(h.logContext(ctx), "stdio.session.initialized")
	h.writeAsync(ctx, g, resp)
}

// cancelRequest cancels the in-flight request with the given key and marks
// its response for suppression.
func (h *Handler) cancelRequest(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	call, ok := h.inflight[key]
	if !ok {
		return false
	}
	call.cancelled = true
	call.cancel()
	return true
}

// writeAsync writes resp from the errgroup so that a blocked writer never
// stalls the read loop.
func (h *Handler) writeAsync(ctx context.Context, g *errgroup.Group, resp *jsonrpc.Response) {
	g.Go(func() error {
		if ctx.Err() != nil {
			return nil
		}
		return h.write(resp)
	})
}

func (h *Handler) write(resp *jsonrpc.Response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("stdio: encode response: %w", err)
	}
	b = append(b, '\n')

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if _, err := h.w.Write(b); err != nil {
		return fmt.Errorf("stdio: write: %w", err)
	}
	return nil
}
