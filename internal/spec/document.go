package spec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SchemaRefPrefix is the only reference shape resolved by this module.
const SchemaRefPrefix = "#/components/schemas/"

// Parse decodes a YAML or JSON OpenAPI 3.x document and validates it.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse document: %v", err), Cause: err}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		doc.Paths = NewOrderedMap[*PathItem]()
	}
	return &doc, nil
}

// Validate checks the fields every later stage relies on. Paths may be empty.
func (d *Document) Validate() error {
	version := strings.TrimSpace(d.OpenAPI)
	if version == "" {
		return missingFieldError("openapi")
	}
	if !strings.HasPrefix(version, "3.") {
		return unsupportedVersionError(version)
	}
	if strings.TrimSpace(d.Info.Title) == "" {
		return missingFieldError("info.title")
	}
	if strings.TrimSpace(d.Info.Version) == "" {
		return missingFieldError("info.version")
	}
	if d.Components == nil {
		return nil
	}
	for name, s := range d.Components.Schemas.All() {
		if name == "" {
			return &SpecError{Code: ValidationError, Message: "component schema name is empty", JSONPointer: "#/components/schemas"}
		}
		if err := validateSchema(s, SchemaPointer(name)); err != nil {
			return err
		}
	}
	return nil
}

// validateSchema walks inline sub-schemas; references are checked when
// they are resolved.
func validateSchema(s *SchemaOrRef, at string) error {
	if s == nil || s.IsRef() || s.Schema == nil {
		return nil
	}
	schema := s.Schema
	seen := make(map[string]struct{}, len(schema.Required))
	for i, name := range schema.Required {
		if _, dup := seen[name]; dup {
			return &SpecError{
				Code:        ValidationError,
				Message:     fmt.Sprintf("%s: required lists %q more than once", at, name),
				JSONPointer: fmt.Sprintf("%s/required/%d", at, i),
			}
		}
		seen[name] = struct{}{}
	}
	for name, prop := range schema.Properties.All() {
		if err := validateSchema(prop, at+"/properties/"+escapePointerToken(name)); err != nil {
			return err
		}
	}
	for _, group := range []struct {
		keyword string
		members []*SchemaOrRef
	}{{"allOf", schema.AllOf}, {"oneOf", schema.OneOf}, {"anyOf", schema.AnyOf}} {
		for i, m := range group.members {
			if err := validateSchema(m, fmt.Sprintf("%s/%s/%d", at, group.keyword, i)); err != nil {
				return err
			}
		}
	}
	if err := validateSchema(schema.Items, at+"/items"); err != nil {
		return err
	}
	if err := validateSchema(schema.Not, at+"/not"); err != nil {
		return err
	}
	if ap := schema.AdditionalProperties; ap != nil {
		return validateSchema(ap.Schema, at+"/additionalProperties")
	}
	return nil
}

// Schema looks up a named entry of components.schemas.
func (d *Document) Schema(name string) (*SchemaOrRef, bool) {
	if d == nil || d.Components == nil {
		return nil, false
	}
	return d.Components.Schemas.Get(name)
}

// SchemaNames returns component schema names in declaration order.
func (d *Document) SchemaNames() []string {
	if d == nil || d.Components == nil {
		return nil
	}
	return d.Components.Schemas.Keys()
}

// PathItem looks up a path template such as "/pets/{id}".
func (d *Document) PathItem(path string) (*PathItem, bool) {
	if d == nil {
		return nil, false
	}
	return d.Paths.Get(path)
}

// SchemaPointer builds the reference string for a component schema name,
// escaping it as a JSON pointer token.
func SchemaPointer(name string) string {
	return SchemaRefPrefix + escapePointerToken(name)
}

func escapePointerToken(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}

// UnescapePointerToken reverses JSON pointer token escaping.
func UnescapePointerToken(s string) string {
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
}
