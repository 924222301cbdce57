package router

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
)

// ToolHandler executes a tool invocation with raw JSON arguments.
type ToolHandler func(ctx context.Context, arguments json.RawMessage) ([]mcp.ContentBlock, error)

// ToolEntry pairs a tool descriptor with its handler.
type ToolEntry struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// ToolOption configures NewTool.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description               string
	allowAdditionalProperties bool // default false (strict)
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// WithToolAllowAdditionalProperties controls whether unknown argument fields
// are accepted. When false (default) the schema declares
// additionalProperties=false and decoding rejects unknown fields.
func WithToolAllowAdditionalProperties(allow bool) ToolOption {
	return func(c *toolConfig) { c.allowAdditionalProperties = allow }
}

// RawTool registers a tool with an explicit descriptor and a raw handler.
func RawTool(desc mcp.Tool, handler ToolHandler) ToolEntry {
	if desc.InputSchema.Type == "" {
		desc.InputSchema = mcp.EmptyObjectSchema()
	}
	return ToolEntry{Descriptor: desc, Handler: handler}
}

// NewTool constructs a tool from a typed argument struct A. It:
//   - reflects a JSON Schema from A using invopop/jsonschema,
//   - down-converts it to the simplified mcp.ToolInputSchema,
//   - wraps fn with JSON decoding of the arguments.
//
// Empty or null arguments decode to the zero A, so tools without required
// fields accept empty-argument calls. Missing required fields and decoding
// failures surface as *ExecutionError.
func NewTool[A any](name string, fn func(ctx context.Context, args A) ([]mcp.ContentBlock, error), opts ...ToolOption) ToolEntry {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	schema := reflectInputSchema[A](cfg.allowAdditionalProperties)
	desc := mcp.Tool{
		Name:        name,
		Description: cfg.description,
		InputSchema: schema,
	}

	handler := func(ctx context.Context, raw json.RawMessage) ([]mcp.ContentBlock, error) {
		a, err := decodeArguments[A](raw, schema.Required, cfg.allowAdditionalProperties)
		if err != nil {
			return nil, ExecutionFailuref(name, "invalid arguments: %v", err)
		}
		return fn(ctx, a)
	}

	return ToolEntry{Descriptor: desc, Handler: handler}
}

func isEmptyArguments(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeArguments[A any](raw json.RawMessage, required []string, allowAdditional bool) (A, error) {
	var a A
	if isEmptyArguments(raw) {
		if len(required) > 0 {
			return a, &missingArgumentError{name: required[0]}
		}
		return a, nil
	}

	if len(required) > 0 {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return a, err
		}
		for _, r := range required {
			if _, ok := fields[r]; !ok {
				return a, &missingArgumentError{name: r}
			}
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if !allowAdditional {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&a); err != nil {
		return a, err
	}
	return a, nil
}

type missingArgumentError struct{ name string }

func (e *missingArgumentError) Error() string {
	return "missing required argument \"" + e.name + "\""
}

// reflectInputSchema reflects A into a jsonschema.Schema and converts it to
// the simplified mcp.ToolInputSchema. Non-object types expose an empty object;
// maps additionally accept any property.
func reflectInputSchema[A any](allowAdditional bool) mcp.ToolInputSchema {
	out := mcp.EmptyObjectSchema()
	t := reflect.TypeFor[A]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Map {
		return out
	}
	if !allowAdditional {
		f := false
		out.AdditionalProperties = &f
	}
	if t.Kind() != reflect.Struct {
		return out
	}

	// DoNotReference inlines the root, named or not, so ExpandedStruct is
	// never needed.
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: allowAdditional,
	}
	s := r.ReflectFromType(t)
	if s == nil || s.Type != "object" {
		return out
	}

	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			out.Properties[el.Key] = toSchemaProperty(el.Value)
		}
	}
	if len(s.Required) > 0 {
		out.Required = append(out.Required, s.Required...)
	}
	return out
}

// toSchemaProperty recursively maps a jsonschema.Schema to mcp.SchemaProperty.
func toSchemaProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toSchemaProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toSchemaProperty(el.Value)
		}
		p.Properties = m
	}
	return p
}
