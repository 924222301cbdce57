package validation

import (
	"fmt"

	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
)

// ToolInputSchema validates and normalizes a tool input schema in-place.
// It de-duplicates Required preserving first-occurrence order and replaces
// nil Properties and Required with empty values so listings always carry
// both keys.
func ToolInputSchema(s *mcp.ToolInputSchema) error {
	if s == nil {
		return fmt.Errorf("nil schema")
	}
	if s.Type != "object" {
		return fmt.Errorf("input schema type must be object, got %q", s.Type)
	}
	if s.Properties == nil {
		s.Properties = map[string]mcp.SchemaProperty{}
	}
	seen := map[string]struct{}{}
	req := []string{}
	for _, name := range s.Required {
		if _, ok := s.Properties[name]; !ok {
			return fmt.Errorf("required property missing: %s", name)
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			req = append(req, name)
		}
	}
	s.Required = req
	for name, p := range s.Properties {
		if err := schemaProperty(name, p); err != nil {
			return err
		}
	}
	return nil
}

func schemaProperty(name string, p mcp.SchemaProperty) error {
	if len(p.Enum) > 1 {
		uniq := map[string]struct{}{}
		for _, v := range p.Enum {
			uniq[fmt.Sprintf("%T:%v", v, v)] = struct{}{}
		}
		if len(uniq) != len(p.Enum) {
			return fmt.Errorf("duplicate enum values for property %s", name)
		}
	}
	if p.Type == "array" && p.Items != nil {
		if err := schemaProperty(name+"[]", *p.Items); err != nil {
			return err
		}
	}
	for child, cp := range p.Properties {
		if err := schemaProperty(name+"."+child, cp); err != nil {
			return err
		}
	}
	return nil
}

// PromptArguments checks that every argument is named and that names are
// unique.
func PromptArguments(args []mcp.PromptArgument) error {
	seen := make(map[string]struct{}, len(args))
	for i, a := range args {
		if a.Name == "" {
			return fmt.Errorf("argument %d has no name", i)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("duplicate argument %s", a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}
