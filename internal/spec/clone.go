package spec

import "github.com/mohae/deepcopy"

// Clone returns a deep copy of s. Free-form values (default, example, enum,
// const, extensions) are copied as well, so the clone shares nothing with s.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	out.Default = copyValue(s.Default)
	out.Example = copyValue(s.Example)
	out.Const = copyValue(s.Const)
	out.ExclusiveMinimum = copyValue(s.ExclusiveMinimum)
	out.ExclusiveMaximum = copyValue(s.ExclusiveMaximum)
	if s.Enum != nil {
		out.Enum = make([]any, len(s.Enum))
		for i, v := range s.Enum {
			out.Enum[i] = copyValue(v)
		}
	}
	if s.Extensions != nil {
		out.Extensions = deepcopy.Copy(s.Extensions).(map[string]any)
	}

	out.MultipleOf = copyPtr(s.MultipleOf)
	out.Minimum = copyPtr(s.Minimum)
	out.Maximum = copyPtr(s.Maximum)
	out.MinLength = copyPtr(s.MinLength)
	out.MaxLength = copyPtr(s.MaxLength)
	out.MinItems = copyPtr(s.MinItems)
	out.MaxItems = copyPtr(s.MaxItems)
	out.MinProperties = copyPtr(s.MinProperties)
	out.MaxProperties = copyPtr(s.MaxProperties)

	if s.Required != nil {
		out.Required = append(make([]string, 0, len(s.Required)), s.Required...)
	}
	out.Items = s.Items.Clone()
	out.Not = s.Not.Clone()
	out.Properties = s.Properties.Clone((*SchemaOrRef).Clone)
	out.AllOf = cloneList(s.AllOf)
	out.OneOf = cloneList(s.OneOf)
	out.AnyOf = cloneList(s.AnyOf)

	if s.AdditionalProperties != nil {
		out.AdditionalProperties = &AdditionalProperties{
			Allowed: copyPtr(s.AdditionalProperties.Allowed),
			Schema:  s.AdditionalProperties.Schema.Clone(),
		}
	}
	if s.Discriminator != nil {
		out.Discriminator = &Discriminator{
			PropertyName: s.Discriminator.PropertyName,
			Mapping:      s.Discriminator.Mapping.Clone(nil),
		}
	}
	return &out
}

// Clone returns a deep copy of s.
func (s *SchemaOrRef) Clone() *SchemaOrRef {
	if s == nil {
		return nil
	}
	if s.Ref != nil {
		return &SchemaOrRef{Ref: &SchemaRef{Ref: s.Ref.Ref}}
	}
	return &SchemaOrRef{Schema: s.Schema.Clone()}
}

func cloneList(list []*SchemaOrRef) []*SchemaOrRef {
	if list == nil {
		return nil
	}
	out := make([]*SchemaOrRef, len(list))
	for i, s := range list {
		out[i] = s.Clone()
	}
	return out
}

func copyValue(v any) any {
	if v == nil {
		return nil
	}
	return deepcopy.Copy(v)
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
