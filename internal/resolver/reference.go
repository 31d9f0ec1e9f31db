package resolver

import (
	"strings"

	"github.com/mark3labs/oascompose/internal/spec"
)

// ResolveReference looks up a "#/components/schemas/<Name>" pointer and
// follows chained references until it reaches an inline schema. The result
// is a deep copy.
func (r *Resolver) ResolveReference(ref string) (*spec.Schema, error) {
	s, _, err := r.lookup(ref, nil)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// SchemaName returns the component name a pointer addresses, validating its
// shape without looking it up.
func SchemaName(ref string) (string, error) {
	if !strings.HasPrefix(ref, "#/") {
		return "", spec.ExternalReferenceError(ref)
	}
	parts := strings.Split(ref[2:], "/")
	if len(parts) != 3 || parts[0] != "components" || parts[1] != "schemas" || parts[2] == "" {
		return "", spec.ReferenceNotFoundError(ref)
	}
	return spec.UnescapePointerToken(parts[2]), nil
}

// lookup follows ref through the components table. It returns the target
// schema (not copied) and visited extended by every pointer followed.
func (r *Resolver) lookup(ref string, visited chain) (*spec.Schema, chain, error) {
	for {
		if visited.has(ref) {
			return nil, nil, spec.CircularReferenceError(ref, visited)
		}
		name, err := SchemaName(ref)
		if err != nil {
			return nil, nil, err
		}
		entry, ok := r.doc.Schema(name)
		if !ok || entry == nil || (entry.Schema == nil && entry.Ref == nil) {
			return nil, nil, spec.ReferenceNotFoundError(ref)
		}
		visited = visited.push(ref)
		if !entry.IsRef() {
			return entry.Schema, visited, nil
		}
		ref = entry.Ref.Ref
	}
}
