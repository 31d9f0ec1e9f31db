package resolver

import (
	"fmt"
	"slices"

	"github.com/mohae/deepcopy"

	"github.com/mark3labs/oascompose/internal/spec"
)

// ResolveSchema returns the composition-free form of s.
//
// Only the first of allOf, oneOf, anyOf (in that order) is honored. A schema
// without composition is deep-copied; a reference is followed and its target
// checked for composition.
func (r *Resolver) ResolveSchema(s *spec.SchemaOrRef) (*ResolvedSchema, error) {
	return r.resolve(s, "", nil)
}

func (r *Resolver) resolve(s *spec.SchemaOrRef, at string, visited chain) (*ResolvedSchema, error) {
	if isEmpty(s) {
		return nil, spec.CompositionError("schema", at, "schema is empty")
	}
	schema := s.Schema
	if s.IsRef() {
		var err error
		at = s.Ref.Ref
		if schema, visited, err = r.lookup(at, visited); err != nil {
			return nil, err
		}
	}

	switch {
	case len(schema.AllOf) > 0:
		merged, err := r.mergeAllOf(schema, at, visited)
		if err != nil {
			return nil, err
		}
		return &ResolvedSchema{Schema: merged, Composition: AllOf}, nil
	case len(schema.OneOf) > 0:
		return r.mergeOneOf(schema, at)
	case len(schema.AnyOf) > 0:
		return r.mergeAnyOf(schema, at)
	}
	return &ResolvedSchema{Schema: schema.Clone()}, nil
}

// seed starts a merge result from the combining schema's own metadata.
func seed(s *spec.Schema) *spec.Schema {
	out := &spec.Schema{
		Type:        s.Type,
		Format:      s.Format,
		Title:       s.Title,
		Description: s.Description,
		Nullable:    s.Nullable,
		Properties:  spec.NewOrderedMap[*spec.SchemaOrRef](),
		Required:    []string{},
	}
	if s.Example != nil {
		out.Example = deepcopy.Copy(s.Example)
	}
	if s.Discriminator != nil {
		out.Discriminator = &spec.Discriminator{
			PropertyName: s.Discriminator.PropertyName,
			Mapping:      s.Discriminator.Mapping.Clone(nil),
		}
	}
	return out
}

func (r *Resolver) mergeAllOf(s *spec.Schema, at string, visited chain) (*spec.Schema, error) {
	out := seed(s)
	for i, member := range s.AllOf {
		m, err := r.allOfMember(member, memberPath(at, "allOf", i), visited)
		if err != nil {
			return nil, err
		}
		typ, ok := mergeTypes(out.Type, m.Type)
		if !ok {
			return nil, spec.CompositionError("allOf", at,
				fmt.Sprintf("member %d has type %q, conflicting with %q", i, m.Type, out.Type))
		}
		out.Type = typ
		for name, prop := range m.Properties.All() {
			out.Properties.Set(name, prop.Clone())
		}
		out.Required = appendUnique(out.Required, m.Required...)
		if out.Title == "" {
			out.Title = m.Title
		}
		if out.Description == "" {
			out.Description = m.Description
		}
		if out.Example == nil && m.Example != nil {
			out.Example = deepcopy.Copy(m.Example)
		}
	}
	return out, nil
}

// allOfMember resolves one allOf member, flattening nested allOf. oneOf and
// anyOf on a member are left alone.
func (r *Resolver) allOfMember(member *spec.SchemaOrRef, at string, visited chain) (*spec.Schema, error) {
	if isEmpty(member) {
		return nil, spec.CompositionError("allOf", at, "member is empty")
	}
	schema := member.Schema
	if member.IsRef() {
		var err error
		at = member.Ref.Ref
		if schema, visited, err = r.lookup(at, visited); err != nil {
			return nil, err
		}
	}
	if len(schema.AllOf) > 0 {
		return r.mergeAllOf(schema, at, visited)
	}
	return schema, nil
}

func (r *Resolver) mergeOneOf(s *spec.Schema, at string) (*ResolvedSchema, error) {
	out := seedWithOwnShape(s)
	variants, err := r.variants("oneOf", s.OneOf, at, "Variant")
	if err != nil {
		return nil, err
	}
	if d := s.Discriminator; d != nil && d.PropertyName != "" {
		if !out.Properties.Has(d.PropertyName) {
			out.Properties.Set(d.PropertyName, spec.NewInline(&spec.Schema{Type: "string"}))
		}
		out.Required = appendUnique(out.Required, d.PropertyName)
	}
	return &ResolvedSchema{Schema: out, Composition: OneOf, Variants: variants}, nil
}

func (r *Resolver) mergeAnyOf(s *spec.Schema, at string) (*ResolvedSchema, error) {
	out := seedWithOwnShape(s)
	variants, err := r.variants("anyOf", s.AnyOf, at, "Option")
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		for name, prop := range v.Schema.Properties.All() {
			out.Properties.Set(name, prop.Clone())
		}
		out.Required = appendUnique(out.Required, v.Schema.Required...)
	}
	return &ResolvedSchema{Schema: out, Composition: AnyOf, Variants: variants}, nil
}

// seedWithOwnShape is seed plus the properties and required names the
// combining schema declares itself.
func seedWithOwnShape(s *spec.Schema) *spec.Schema {
	out := seed(s)
	for name, prop := range s.Properties.All() {
		out.Properties.Set(name, prop.Clone())
	}
	out.Required = appendUnique(out.Required, s.Required...)
	return out
}

// variants resolves each member one reference hop and names it. A member
// is not expanded, so it starts a fresh chain: a union may list itself.
func (r *Resolver) variants(keyword string, members []*spec.SchemaOrRef, at string, fallback string) ([]Variant, error) {
	out := make([]Variant, 0, len(members))
	for i, member := range members {
		if isEmpty(member) {
			return nil, spec.CompositionError(keyword, memberPath(at, keyword, i), "member is empty")
		}
		v := Variant{Ref: member.RefString()}
		if member.IsRef() {
			target, _, err := r.lookup(v.Ref, nil)
			if err != nil {
				return nil, err
			}
			v.Schema = target.Clone()
		} else {
			v.Schema = member.Schema.Clone()
		}
		v.Name = v.Schema.Title
		if v.Name == "" {
			v.Name = fmt.Sprintf("%s%d", fallback, i+1)
		}
		out = append(out, v)
	}
	return out, nil
}

// mergeTypes combines two primitive type tags. integer narrows number.
func mergeTypes(have, next string) (string, bool) {
	switch {
	case next == "" || next == have:
		return have, true
	case have == "":
		return next, true
	case have == "number" && next == "integer", have == "integer" && next == "number":
		return "integer", true
	}
	return have, false
}

func appendUnique(list []string, names ...string) []string {
	for _, n := range names {
		if !slices.Contains(list, n) {
			list = append(list, n)
		}
	}
	return list
}

func isEmpty(s *spec.SchemaOrRef) bool {
	return s == nil || (s.Schema == nil && s.Ref == nil)
}

func memberPath(at, keyword string, i int) string {
	if at == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%d", at, keyword, i)
}
