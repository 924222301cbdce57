package router

import "github.com/knowledgebae/knowledge-bae-mcp/mcp"

// Capabilities is the immutable capability descriptor. Each category is
// toggled independently; enabling a category whose registry is empty is legal
// and advertises an empty list.
//
// The zero value advertises nothing.
type Capabilities struct {
	tools     bool
	resources bool
	prompts   bool

	resourceOpts ResourceOptions
}

// ResourceOptions are the sub-options of the resources capability.
type ResourceOptions struct {
	Subscribe   bool
	ListChanged bool
}

// CapabilityOption configures a Capabilities value built by NewCapabilities.
type CapabilityOption func(*Capabilities)

// NewCapabilities builds an immutable descriptor from the provided options.
// Later options override earlier ones.
func NewCapabilities(opts ...CapabilityOption) Capabilities {
	var c Capabilities
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}

// WithToolsEnabled toggles the tools capability.
func WithToolsEnabled(enabled bool) CapabilityOption {
	return func(c *Capabilities) { c.tools = enabled }
}

// WithResourcesEnabled enables the resources capability with the given
// sub-options.
func WithResourcesEnabled(subscribe, listChanged bool) CapabilityOption {
	return func(c *Capabilities) {
		c.resources = true
		c.resourceOpts = ResourceOptions{Subscribe: subscribe, ListChanged: listChanged}
	}
}

// WithResourcesDisabled turns the resources capability off.
func WithResourcesDisabled() CapabilityOption {
	return func(c *Capabilities) {
		c.resources = false
		c.resourceOpts = ResourceOptions{}
	}
}

// WithPromptsEnabled toggles the prompts capability.
func WithPromptsEnabled(enabled bool) CapabilityOption {
	return func(c *Capabilities) { c.prompts = enabled }
}

// Tools reports whether the tools capability is enabled.
func (c Capabilities) Tools() bool { return c.tools }

// Resources reports whether the resources capability is enabled, and its
// sub-options.
func (c Capabilities) Resources() (ResourceOptions, bool) {
	return c.resourceOpts, c.resources
}

// Prompts reports whether the prompts capability is enabled.
func (c Capabilities) Prompts() bool { return c.prompts }

// Enabled reports whether the given category is enabled. Unknown categories
// are never enabled.
func (c Capabilities) Enabled(cat Category) bool {
	switch cat {
	case CategoryTool:
		return c.tools
	case CategoryResource:
		return c.resources
	case CategoryPrompt:
		return c.prompts
	default:
		return false
	}
}

// ServerCapabilities renders the descriptor in its negotiation shape.
// Disabled categories are omitted.
func (c Capabilities) ServerCapabilities() mcp.ServerCapabilities {
	var out mcp.ServerCapabilities
	if c.tools {
		out.Tools = &mcp.ToolsCapability{}
	}
	if c.resources {
		out.Resources = &mcp.ResourcesCapability{
			Subscribe:   c.resourceOpts.Subscribe,
			ListChanged: c.resourceOpts.ListChanged,
		}
	}
	if c.prompts {
		out.Prompts = &mcp.PromptsCapability{}
	}
	return out
}
