package resolver

import "github.com/mark3labs/oascompose/internal/spec"

// Composition names the keyword a ResolvedSchema was produced from.
type Composition string

const (
	None  Composition = ""
	AllOf Composition = "allOf"
	OneOf Composition = "oneOf"
	AnyOf Composition = "anyOf"
)

// Variant is one member of a oneOf or anyOf union.
type Variant struct {
	// Name is the member's title, or a positional fallback such as Variant2.
	Name string `yaml:"name" json:"name"`
	// Ref is the member's pointer when it was declared as a reference.
	Ref    string       `yaml:"ref,omitempty" json:"ref,omitempty"`
	Schema *spec.Schema `yaml:"schema" json:"schema"`
}

// ResolvedSchema is a schema with no allOf, oneOf or anyOf at its own level.
// Values are freshly built for every call and share nothing with the
// Document they came from.
type ResolvedSchema struct {
	Schema      *spec.Schema `yaml:"schema" json:"schema"`
	Composition Composition  `yaml:"composition,omitempty" json:"composition,omitempty"`
	// Variants is set only for oneOf and anyOf, in declaration order.
	Variants []Variant `yaml:"variants,omitempty" json:"variants,omitempty"`
}

// VariantNames returns the variant names in order.
func (r *ResolvedSchema) VariantNames() []string {
	if r == nil || len(r.Variants) == 0 {
		return nil
	}
	names := make([]string, len(r.Variants))
	for i, v := range r.Variants {
		names[i] = v.Name
	}
	return names
}
