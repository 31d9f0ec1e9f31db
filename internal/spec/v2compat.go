package spec

import (
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// v2 operation keys; Swagger 2.0 has no trace.
var v2OperationKeys = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true,
}

const multipartForm = "multipart/form-data"

// preprocessV2ForCompatibility rewrites Swagger 2.0 operations that
// openapi2conv rejects:
//   - several "in: body" parameters merge into one object body whose
//     properties are the original parameters;
//   - body parameters mixed with formData become formData themselves and
//     the operation consumes multipart/form-data.
//
// On error the input is returned unchanged with changed=false.
func preprocessV2ForCompatibility(data []byte) ([]byte, bool, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return data, false, err
	}
	paths, _ := root["paths"].(map[string]any)
	changed := false
	for _, item := range paths {
		pathItem, _ := item.(map[string]any)
		for key, raw := range pathItem {
			if !v2OperationKeys[strings.ToLower(key)] {
				continue
			}
			if op, ok := raw.(map[string]any); ok && rewriteV2Operation(op) {
				changed = true
			}
		}
	}
	if !changed {
		return data, false, nil
	}
	out, err := yaml.Marshal(root)
	if err != nil {
		return data, false, err
	}
	return out, true, nil
}

// rewriteV2Operation fixes op in place and reports whether it changed.
func rewriteV2Operation(op map[string]any) bool {
	params, _ := op["parameters"].([]any)
	bodies, hasForm := countParamLocations(params)
	switch {
	case bodies == 0:
		return false
	case hasForm:
		op["parameters"] = bodyParamsToFormData(params)
		consumes, _ := op["consumes"].([]any)
		if !slices.Contains(consumes, any(multipartForm)) {
			op["consumes"] = append(consumes, multipartForm)
		}
		return true
	case bodies > 1:
		op["parameters"] = mergeBodyParams(params)
		return true
	}
	return false
}

func countParamLocations(params []any) (bodies int, hasForm bool) {
	for _, p := range params {
		switch paramIn(p) {
		case "body":
			bodies++
		case "formdata":
			hasForm = true
		}
	}
	return bodies, hasForm
}

func paramIn(p any) string {
	m, _ := p.(map[string]any)
	return strings.ToLower(asString(m["in"]))
}

func bodyParamsToFormData(params []any) []any {
	out := make([]any, 0, len(params))
	for _, p := range params {
		m, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if paramIn(m) == "body" {
			out = append(out, formDataFromBodyParam(m))
			continue
		}
		out = append(out, m)
	}
	return out
}

// mergeBodyParams replaces every body parameter with a single leading body
// parameter named "body".
func mergeBodyParams(params []any) []any {
	props := map[string]any{}
	var required []any
	rest := make([]any, 0, len(params))
	for _, p := range params {
		m, ok := p.(map[string]any)
		if !ok || paramIn(m) != "body" {
			rest = append(rest, p)
			continue
		}
		name := paramName(m)
		schema := schemaOfParam(m)
		if schema == nil {
			schema = map[string]any{"type": "string"}
		}
		props[name] = schema
		if req, _ := m["required"].(bool); req {
			required = append(required, name)
		}
	}
	body := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		body["required"] = required
	}
	merged := map[string]any{"in": "body", "name": "body", "schema": body}
	return append([]any{merged}, rest...)
}

func paramName(m map[string]any) string {
	if name := asString(m["name"]); name != "" {
		return name
	}
	return "field"
}

// schemaOfParam returns the body schema, or one synthesized from the
// parameter's own type, items and format.
func schemaOfParam(m map[string]any) map[string]any {
	if s, ok := m["schema"].(map[string]any); ok {
		return s
	}
	typ := asString(m["type"])
	if typ == "" {
		return nil
	}
	out := map[string]any{"type": typ}
	copySimpleFacets(out, m)
	return out
}

func formDataFromBodyParam(m map[string]any) map[string]any {
	out := map[string]any{"in": "formData", "name": paramName(m)}
	if desc := asString(m["description"]); desc != "" {
		out["description"] = desc
	}
	if req, ok := m["required"].(bool); ok {
		out["required"] = req
	}

	source := m
	if s, ok := m["schema"].(map[string]any); ok && asString(s["type"]) != "" {
		source = s
	}
	out["type"] = "string"
	if typ := asString(source["type"]); typ != "" {
		out["type"] = typ
	}
	copySimpleFacets(out, source)
	return out
}

func copySimpleFacets(dst, src map[string]any) {
	if items, ok := src["items"].(map[string]any); ok {
		dst["items"] = items
	}
	if f := asString(src["format"]); f != "" {
		dst["format"] = f
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
