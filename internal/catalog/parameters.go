package catalog

import (
	"strings"

	"github.com/mark3labs/oascompose/internal/spec"
)

const parameterRefPrefix = "#/components/parameters/"

// mergeParameters lists path-level parameters first, replacing any that an
// operation parameter with the same location and name overrides in place.
// Operation-only parameters follow in declaration order.
func (c *Catalog) mergeParameters(pathLevel, opLevel []*spec.ParameterOrRef) ([]*spec.Parameter, error) {
	var out []*spec.Parameter
	index := map[string]int{}
	for _, list := range [][]*spec.ParameterOrRef{pathLevel, opLevel} {
		for _, pr := range list {
			p, err := c.parameter(pr)
			if err != nil {
				return nil, err
			}
			if p == nil {
				continue
			}
			key := paramKey(p.In, p.Name)
			if i, ok := index[key]; ok {
				out[i] = p
				continue
			}
			index[key] = len(out)
			out = append(out, p)
		}
	}
	return out, nil
}

// parameter follows a parameter reference into components.parameters.
func (c *Catalog) parameter(pr *spec.ParameterOrRef) (*spec.Parameter, error) {
	var visited []string
	for pr != nil {
		if pr.Ref == "" {
			return pr.Value, nil
		}
		ref := pr.Ref
		if !strings.HasPrefix(ref, "#/") {
			return nil, spec.ExternalReferenceError(ref)
		}
		for _, seen := range visited {
			if seen == ref {
				return nil, spec.CircularReferenceError(ref, visited)
			}
		}
		visited = append(visited, ref)
		name, ok := strings.CutPrefix(ref, parameterRefPrefix)
		if !ok || name == "" || strings.Contains(name, "/") || c.doc.Components == nil {
			return nil, spec.ReferenceNotFoundError(ref)
		}
		next, found := c.doc.Components.Parameters.Get(spec.UnescapePointerToken(name))
		if !found {
			return nil, spec.ReferenceNotFoundError(ref)
		}
		pr = next
	}
	return nil, nil
}

func paramKey(in, name string) string { return in + ":" + name }
