package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
	"github.com/knowledgebae/knowledge-bae-mcp/router"
)

// ErrInvalidInvocation is returned by Dispatch for a structurally invalid
// invocation, such as an empty identifier.
var ErrInvalidInvocation = errors.New("invalid invocation")

// Invocation is a single typed request into one capability category.
type Invocation struct {
	Category   router.Category
	Identifier string
	// Arguments are passed to tool handlers verbatim. They are ignored for
	// resources and prompts.
	Arguments json.RawMessage
}

// Result is the outcome of a successful Dispatch. Tool invocations populate
// Content; resource and prompt invocations populate Text.
type Result struct {
	Content []mcp.ContentBlock
	Text    string
}

// Adapter translates protocol requests into router calls.
type Adapter struct {
	router   router.Router
	log      *slog.Logger
	version  string
	pageSize int
	levelVar *slog.LevelVar
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// WithVersion sets the serverInfo.version advertised during negotiation.
func WithVersion(v string) Option {
	return func(a *Adapter) { a.version = v }
}

// WithPageSize enables cursor paging of list results. Zero or a negative
// value returns every entry in a single page.
func WithPageSize(n int) Option {
	return func(a *Adapter) { a.pageSize = n }
}

// WithLevelVar advertises the logging capability and lets the remote agent
// adjust lv through logging/setLevel.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(a *Adapter) { a.levelVar = lv }
}

// DefaultVersion is advertised when WithVersion is not supplied.
const DefaultVersion = "0.1.0"

// New constructs an Adapter around r.
func New(r router.Router, opts ...Option) *Adapter {
	a := &Adapter{
		router:  r,
		log:     slog.New(slog.DiscardHandler),
		version: DefaultVersion,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Router returns the wrapped router.
func (a *Adapter) Router() router.Router { return a.router }

// Dispatch validates inv and routes it to the router. Capability checks
// happen before identifier validation and any registry lookup, so a disabled
// category yields *router.CapabilityDisabledError even for empty or unknown
// identifiers.
//
// When ctx is done before the router returns, Dispatch returns ctx.Err()
// immediately and the router call is abandoned. Routers keep no shared state
// per call, so an abandoned call has no observable effect on the adapter.
func (a *Adapter) Dispatch(ctx context.Context, inv Invocation) (Result, error) {
	if !inv.Category.Valid() {
		return Result{}, fmt.Errorf("%w: unknown category %d", ErrInvalidInvocation, int(inv.Category))
	}
	if !a.router.Capabilities().Enabled(inv.Category) {
		return Result{}, &router.CapabilityDisabledError{Category: inv.Category}
	}
	if inv.Identifier == "" {
		return Result{}, fmt.Errorf("%w: empty %s identifier", ErrInvalidInvocation, inv.Category)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				err := fmt.Errorf("panic: %v", p)
				if inv.Category == router.CategoryTool {
					err = router.ExecutionFailure(inv.Identifier, err)
				}
				done <- outcome{err: err}
			}
		}()
		res, err := a.route(ctx, inv)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (a *Adapter) route(ctx context.Context, inv Invocation) (Result, error) {
	switch inv.Category {
	case router.CategoryTool:
		content, err := a.router.CallTool(ctx, inv.Identifier, inv.Arguments)
		if err != nil {
			return Result{}, err
		}
		if content == nil {
			content = []mcp.ContentBlock{}
		}
		return Result{Content: content}, nil
	case router.CategoryResource:
		text, err := a.router.ReadResource(ctx, inv.Identifier)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: text}, nil
	case router.CategoryPrompt:
		text, err := a.router.GetPrompt(ctx, inv.Identifier)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: text}, nil
	default:
		return Result{}, fmt.Errorf("%w: unknown category %d", ErrInvalidInvocation, int(inv.Category))
	}
}
