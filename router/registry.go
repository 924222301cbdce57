package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/knowledgebae/knowledge-bae-mcp/internal/validation"
	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
)

// ResourceReader produces the textual content of a resource.
type ResourceReader func(ctx context.Context) (string, error)

// ResourceEntry pairs a resource descriptor with its reader.
type ResourceEntry struct {
	Descriptor mcp.Resource
	Read       ResourceReader
}

// TextResource registers a resource whose content is a fixed string.
func TextResource(desc mcp.Resource, text string) ResourceEntry {
	return ResourceEntry{
		Descriptor: desc,
		Read:       func(context.Context) (string, error) { return text, nil },
	}
}

// PromptEntry pairs a prompt descriptor with its raw template.
type PromptEntry struct {
	Descriptor mcp.Prompt
	Template   string
}

// TemplatePrompt registers a prompt returning template verbatim.
func TemplatePrompt(desc mcp.Prompt, template string) PromptEntry {
	return PromptEntry{Descriptor: desc, Template: template}
}

// ErrDuplicateIdentifier is returned by NewRegistry when two entries of the
// same category share an identifier.
var ErrDuplicateIdentifier = errors.New("duplicate identifier")

// ErrEmptyIdentifier is returned by NewRegistry for an entry without a name
// or uri.
var ErrEmptyIdentifier = errors.New("empty identifier")

// Registry is an immutable set of tools, resources and prompts. It
// implements ToolRouter, ResourceRouter and PromptRouter. Registration order
// is listing order.
//
// A Registry is safe for concurrent use: nothing is mutated after
// NewRegistry returns.
type Registry struct {
	tools        []mcp.Tool
	toolHandlers map[string]ToolHandler

	resources       []mcp.Resource
	resourceReaders map[string]ResourceReader

	prompts         []mcp.Prompt
	promptTemplates map[string]string
}

var (
	_ ToolRouter     = (*Registry)(nil)
	_ ResourceRouter = (*Registry)(nil)
	_ PromptRouter   = (*Registry)(nil)
)

// RegistryOption configures NewRegistry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	tools     []ToolEntry
	resources []ResourceEntry
	prompts   []PromptEntry
}

// WithTools appends tool entries.
func WithTools(entries ...ToolEntry) RegistryOption {
	return func(c *registryConfig) { c.tools = append(c.tools, entries...) }
}

// WithResources appends resource entries.
func WithResources(entries ...ResourceEntry) RegistryOption {
	return func(c *registryConfig) { c.resources = append(c.resources, entries...) }
}

// WithPrompts appends prompt entries.
func WithPrompts(entries ...PromptEntry) RegistryOption {
	return func(c *registryConfig) { c.prompts = append(c.prompts, entries...) }
}

// NewRegistry builds an immutable registry. Every listed identifier is
// resolvable: entries without a handler or reader are rejected, as are empty
// and duplicate identifiers. Tool input schemas and prompt arguments are
// validated and normalized.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	var cfg registryConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	r := &Registry{
		tools:           make([]mcp.Tool, 0, len(cfg.tools)),
		toolHandlers:    make(map[string]ToolHandler, len(cfg.tools)),
		resources:       make([]mcp.Resource, 0, len(cfg.resources)),
		resourceReaders: make(map[string]ResourceReader, len(cfg.resources)),
		prompts:         make([]mcp.Prompt, 0, len(cfg.prompts)),
		promptTemplates: make(map[string]string, len(cfg.prompts)),
	}

	for _, t := range cfg.tools {
		name := t.Descriptor.Name
		if name == "" {
			return nil, fmt.Errorf("tool: %w", ErrEmptyIdentifier)
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("tool %q: missing handler", name)
		}
		if _, exists := r.toolHandlers[name]; exists {
			return nil, fmt.Errorf("tool %q: %w", name, ErrDuplicateIdentifier)
		}
		desc := cloneTool(t.Descriptor)
		if err := validation.ToolInputSchema(&desc.InputSchema); err != nil {
			return nil, fmt.Errorf("tool %q: %w", name, err)
		}
		r.tools = append(r.tools, desc)
		r.toolHandlers[name] = t.Handler
	}

	for _, res := range cfg.resources {
		uri := res.Descriptor.URI
		if uri == "" {
			return nil, fmt.Errorf("resource: %w", ErrEmptyIdentifier)
		}
		if res.Read == nil {
			return nil, fmt.Errorf("resource %q: missing reader", uri)
		}
		if _, exists := r.resourceReaders[uri]; exists {
			return nil, fmt.Errorf("resource %q: %w", uri, ErrDuplicateIdentifier)
		}
		r.resources = append(r.resources, res.Descriptor)
		r.resourceReaders[uri] = res.Read
	}

	for _, p := range cfg.prompts {
		name := p.Descriptor.Name
		if name == "" {
			return nil, fmt.Errorf("prompt: %w", ErrEmptyIdentifier)
		}
		if _, exists := r.promptTemplates[name]; exists {
			return nil, fmt.Errorf("prompt %q: %w", name, ErrDuplicateIdentifier)
		}
		if err := validation.PromptArguments(p.Descriptor.Arguments); err != nil {
			return nil, fmt.Errorf("prompt %q: %w", name, err)
		}
		r.prompts = append(r.prompts, clonePrompt(p.Descriptor))
		r.promptTemplates[name] = p.Template
	}

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error. It is intended for
// registries built from static definitions at startup.
func MustNewRegistry(opts ...RegistryOption) *Registry {
	r, err := NewRegistry(opts...)
	if err != nil {
		panic(fmt.Sprintf("router: %v", err))
	}
	return r
}

// ListTools implements ToolRouter.
func (r *Registry) ListTools() []mcp.Tool {
	out := make([]mcp.Tool, len(r.tools))
	for i, t := range r.tools {
		out[i] = cloneTool(t)
	}
	return out
}

// CallTool implements ToolRouter. Handler errors that are not already
// *ExecutionError are wrapped as such; context errors pass through
// unchanged.
func (r *Registry) CallTool(ctx context.Context, name string, arguments json.RawMessage) ([]mcp.ContentBlock, error) {
	h, ok := r.toolHandlers[name]
	if !ok {
		return nil, NotFound(CategoryTool, name)
	}
	content, err := h(ctx, arguments)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, ExecutionFailure(name, err)
	}
	if content == nil {
		content = []mcp.ContentBlock{}
	}
	return content, nil
}

// ListResources implements ResourceRouter.
func (r *Registry) ListResources() []mcp.Resource {
	out := make([]mcp.Resource, len(r.resources))
	copy(out, r.resources)
	return out
}

// ReadResource implements ResourceRouter.
func (r *Registry) ReadResource(ctx context.Context, uri string) (string, error) {
	read, ok := r.resourceReaders[uri]
	if !ok {
		return "", NotFound(CategoryResource, uri)
	}
	text, err := read(ctx)
	if err != nil {
		return "", fmt.Errorf("read resource %s: %w", uri, err)
	}
	return text, nil
}

// ListPrompts implements PromptRouter.
func (r *Registry) ListPrompts() []mcp.Prompt {
	out := make([]mcp.Prompt, len(r.prompts))
	for i, p := range r.prompts {
		out[i] = clonePrompt(p)
	}
	return out
}

// GetPrompt implements PromptRouter.
func (r *Registry) GetPrompt(ctx context.Context, name string) (string, error) {
	tpl, ok := r.promptTemplates[name]
	if !ok {
		return "", NotFound(CategoryPrompt, name)
	}
	return tpl, nil
}

func cloneTool(t mcp.Tool) mcp.Tool {
	s := t.InputSchema
	if s.Properties != nil {
		props := make(map[string]mcp.SchemaProperty, len(s.Properties))
		for k, v := range s.Properties {
			props[k] = v
		}
		s.Properties = props
	}
	if s.Required != nil {
		s.Required = append([]string{}, s.Required...)
	}
	if s.AdditionalProperties != nil {
		v := *s.AdditionalProperties
		s.AdditionalProperties = &v
	}
	t.InputSchema = s
	return t
}

func clonePrompt(p mcp.Prompt) mcp.Prompt {
	if p.Arguments != nil {
		p.Arguments = append([]mcp.PromptArgument{}, p.Arguments...)
	}
	return p
}
