package spec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decides between reference and inline schema structurally:
// a mapping carrying "$ref" is a reference and its siblings are ignored.
func (s *SchemaOrRef) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	ref, isRef, err := refFromNode(node)
	if err != nil {
		return err
	}
	if isRef {
		s.Schema, s.Ref = nil, &SchemaRef{Ref: ref}
		return nil
	}
	var schema Schema
	if err := node.Decode(&schema); err != nil {
		return err
	}
	s.Schema, s.Ref = &schema, nil
	return nil
}

func (s *SchemaOrRef) MarshalYAML() (any, error) {
	if s.Ref != nil {
		return s.Ref, nil
	}
	return s.Schema, nil
}

func (s *SchemaOrRef) MarshalJSON() ([]byte, error) {
	if s.Ref != nil {
		return jsonAPI.Marshal(s.Ref)
	}
	return jsonAPI.Marshal(s.Schema)
}

func (o *OrRef[T]) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	ref, isRef, err := refFromNode(node)
	if err != nil {
		return err
	}
	if isRef {
		o.Value, o.Ref = nil, ref
		return nil
	}
	v := new(T)
	if err := node.Decode(v); err != nil {
		return err
	}
	o.Value, o.Ref = v, ""
	return nil
}

func (o *OrRef[T]) MarshalYAML() (any, error) {
	if o.Ref != "" {
		return SchemaRef{Ref: o.Ref}, nil
	}
	return o.Value, nil
}

func (o *OrRef[T]) MarshalJSON() ([]byte, error) {
	if o.Ref != "" {
		return jsonAPI.Marshal(SchemaRef{Ref: o.Ref})
	}
	return jsonAPI.Marshal(o.Value)
}

func refFromNode(node *yaml.Node) (string, bool, error) {
	if node == nil || node.Kind != yaml.MappingNode {
		return "", false, nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "$ref" {
			continue
		}
		v := resolveAlias(node.Content[i+1])
		if v.Kind != yaml.ScalarNode {
			return "", false, fmt.Errorf("line %d: $ref must be a string", v.Line)
		}
		return v.Value, true, nil
	}
	return "", false, nil
}

// UnmarshalYAML decodes a schema mapping. A 3.1 style type list such as
// [string, "null"] collapses to its first non-null entry and sets Nullable.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: schema must be a mapping, got %s", node.Line, kindName(node))
	}
	type plainSchema Schema

	work := node
	nullableFromType := false
	var extensions map[string]any
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, resolveAlias(node.Content[i+1])
		switch {
		case key == "type" && val.Kind == yaml.SequenceNode:
			typ, nullable := collapseTypeList(val)
			if work == node {
				cp := *node
				cp.Content = append([]*yaml.Node(nil), node.Content...)
				work = &cp
			}
			work.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: typ}
			nullableFromType = nullable
		case strings.HasPrefix(key, "x-"):
			var v any
			if err := val.Decode(&v); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if extensions == nil {
				extensions = make(map[string]any)
			}
			extensions[key] = v
		}
	}

	var p plainSchema
	if err := work.Decode(&p); err != nil {
		return err
	}
	*s = Schema(p)
	if nullableFromType {
		s.Nullable = true
	}
	s.Extensions = extensions
	return nil
}

func collapseTypeList(seq *yaml.Node) (string, bool) {
	typ, nullable := "", false
	for _, item := range seq.Content {
		item = resolveAlias(item)
		if item.Value == "null" {
			nullable = true
			continue
		}
		if typ == "" {
			typ = item.Value
		}
	}
	return typ, nullable
}

func (a *AdditionalProperties) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind == yaml.ScalarNode && node.Tag == "!!bool" {
		var allowed bool
		if err := node.Decode(&allowed); err != nil {
			return err
		}
		a.Allowed, a.Schema = &allowed, nil
		return nil
	}
	var sor SchemaOrRef
	if err := node.Decode(&sor); err != nil {
		return err
	}
	a.Allowed, a.Schema = nil, &sor
	return nil
}

func (a *AdditionalProperties) MarshalYAML() (any, error) {
	if a.Schema != nil {
		return a.Schema, nil
	}
	if a.Allowed != nil {
		return *a.Allowed, nil
	}
	return nil, nil
}

func (a *AdditionalProperties) MarshalJSON() ([]byte, error) {
	if a.Schema != nil {
		return jsonAPI.Marshal(a.Schema)
	}
	if a.Allowed != nil {
		return jsonAPI.Marshal(*a.Allowed)
	}
	return []byte("null"), nil
}
