package router

import (
	"context"
	"encoding/json"

	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
)

// Identity describes the server personality advertised at session start.
type Identity interface {
	// Name returns a stable human-readable identifier for the server. It MUST
	// be side-effect free.
	Name() string

	// Instructions returns static text shown to the remote agent describing
	// the server's purpose and usage.
	Instructions() string

	// Capabilities returns the immutable capability descriptor.
	Capabilities() Capabilities
}

// ToolRouter is the tool dispatch surface.
type ToolRouter interface {
	// ListTools returns the full tool registry snapshot.
	ListTools() []mcp.Tool

	// CallTool invokes the named tool. Unknown names fail with a
	// *NotFoundError; tool-specific failures are reported as *ExecutionError.
	// On success the ordered content items are returned.
	CallTool(ctx context.Context, name string, arguments json.RawMessage) ([]mcp.ContentBlock, error)
}

// ResourceRouter is the resource dispatch surface.
type ResourceRouter interface {
	// ListResources returns the full resource registry snapshot.
	ListResources() []mcp.Resource

	// ReadResource resolves uri against the registry and returns its textual
	// content, or a *NotFoundError.
	ReadResource(ctx context.Context, uri string) (string, error)
}

// PromptRouter is the prompt dispatch surface.
type PromptRouter interface {
	// ListPrompts returns the full prompt registry snapshot.
	ListPrompts() []mcp.Prompt

	// GetPrompt returns the raw template for the named prompt. Placeholder
	// markers for declared arguments are left untouched; substitution is the
	// remote agent's responsibility.
	GetPrompt(ctx context.Context, name string) (string, error)
}

// Router is the complete capability-dispatch core.
type Router interface {
	Identity
	ToolRouter
	ResourceRouter
	PromptRouter
}

// Category is the closed set of capability categories a request may target.
type Category int

const (
	CategoryTool Category = iota + 1
	CategoryResource
	CategoryPrompt
)

// Categories lists every valid category in advertisement order.
var Categories = []Category{CategoryTool, CategoryResource, CategoryPrompt}

// String returns the lower-case category name.
func (c Category) String() string {
	switch c {
	case CategoryTool:
		return "tool"
	case CategoryResource:
		return "resource"
	case CategoryPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	return c >= CategoryTool && c <= CategoryPrompt
}

// title is the capitalized form used in error messages.
func (c Category) title() string {
	switch c {
	case CategoryTool:
		return "Tool"
	case CategoryResource:
		return "Resource"
	case CategoryPrompt:
		return "Prompt"
	default:
		return "Item"
	}
}

// plural is the capability name used in negotiation ("tools", ...).
func (c Category) plural() string {
	switch c {
	case CategoryTool:
		return "tools"
	case CategoryResource:
		return "resources"
	case CategoryPrompt:
		return "prompts"
	default:
		return "unknown"
	}
}
