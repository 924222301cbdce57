package router

// Static is a Router assembled from a fixed identity, a capability descriptor
// and an immutable Registry.
type Static struct {
	*Registry

	name         string
	instructions string
	caps         Capabilities
}

var _ Router = (*Static)(nil)

// NewStatic builds a Static router. A nil registry is treated as empty.
func NewStatic(name, instructions string, caps Capabilities, reg *Registry) *Static {
	if reg == nil {
		reg = MustNewRegistry()
	}
	return &Static{Registry: reg, name: name, instructions: instructions, caps: caps}
}

// Name implements Identity.
func (s *Static) Name() string { return s.name }

// Instructions implements Identity.
func (s *Static) Instructions() string { return s.instructions }

// Capabilities implements Identity.
func (s *Static) Capabilities() Capabilities { return s.caps }
