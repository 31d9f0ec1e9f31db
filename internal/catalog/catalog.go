// Package catalog is the query surface over a resolved document: every named
// schema in its composition-free form, operations grouped by tag, and tags.
package catalog

import (
	"errors"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/oascompose/internal/resolver"
	"github.com/mark3labs/oascompose/internal/spec"
)

// DefaultTag files operations that declare no tags.
const DefaultTag = "Default"

// NamedSchema pairs a components.schemas name with its resolved form.
type NamedSchema struct {
	Name   string                   `yaml:"name" json:"name"`
	Schema *resolver.ResolvedSchema `yaml:"resolved" json:"resolved"`
}

// TaggedOperation is one operation as listed under a tag.
type TaggedOperation struct {
	Path        string          `yaml:"path" json:"path"`
	Method      spec.HttpMethod `yaml:"method" json:"method"`
	OperationID string          `yaml:"operationId,omitempty" json:"operationId,omitempty"`
	Operation   *spec.Operation `yaml:"operation" json:"operation"`
	// Parameters are the path item's parameters overridden by the
	// operation's own, matched on location and name.
	Parameters []*spec.Parameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

type Catalog struct {
	doc *spec.Document
	res *resolver.Resolver
	cfg *config
	log *slog.Logger
}

// New builds a Catalog over doc.
func New(doc *spec.Document, opts ...Option) (*Catalog, error) {
	if doc == nil {
		return nil, errors.New("catalog: nil document")
	}
	cfg := newConfig(opts)
	if err := errors.Join(cfg.errs...); err != nil {
		return nil, err
	}
	return &Catalog{doc: doc, res: resolver.New(doc), cfg: cfg, log: cfg.logger}, nil
}

func (c *Catalog) Document() *spec.Document     { return c.doc }
func (c *Catalog) Resolver() *resolver.Resolver { return c.res }

// Schema resolves one named component schema.
func (c *Catalog) Schema(name string) (*resolver.ResolvedSchema, error) {
	return c.res.ResolveSchema(spec.NewRef(spec.SchemaPointer(name)))
}

// AllSchemas resolves every components.schemas entry in declaration order.
// The first failure aborts the batch and no partial result is returned.
func (c *Catalog) AllSchemas() ([]NamedSchema, error) {
	names := c.doc.SchemaNames()
	out := make([]NamedSchema, 0, len(names))
	for _, name := range names {
		rs, err := c.Schema(name)
		if err != nil {
			c.log.Debug("schema resolution failed", "schema", name, "error", err)
			return nil, err
		}
		c.log.Debug("resolved schema", "schema", name, "composition", string(rs.Composition), "variants", len(rs.Variants))
		out = append(out, NamedSchema{Name: name, Schema: rs})
	}
	return out, nil
}

// OperationsByTag scans every path item's eight methods. Operations without
// tags are filed under DefaultTag; an operation with several tags is listed
// under each. Within a tag, operations keep path declaration order and then
// method order.
func (c *Catalog) OperationsByTag() (map[string][]TaggedOperation, error) {
	out := make(map[string][]TaggedOperation)
	for path, item := range c.doc.Paths.All() {
		if item == nil || !c.cfg.allowPath(path) {
			continue
		}
		for _, method := range spec.Methods {
			op := item.Operation(method)
			if op == nil || !c.cfg.allowMethod(method) {
				continue
			}
			tags := operationTags(op)
			if !c.cfg.allowTags(tags) {
				continue
			}
			params, err := c.mergeParameters(item.Parameters, op.Parameters)
			if err != nil {
				return nil, err
			}
			entry := TaggedOperation{
				Path:        path,
				Method:      method,
				OperationID: op.OperationID,
				Operation:   op,
				Parameters:  params,
			}
			for _, tag := range tags {
				out[tag] = append(out[tag], entry)
			}
		}
	}
	return out, nil
}

// AllTags returns the declared tag names plus every tag an operation is
// filed under, deduplicated and sorted. Names are trimmed and empty ones
// dropped the same way OperationsByTag does, so every operation key is
// listed; an operation with no usable tag contributes DefaultTag. Filters
// do not apply.
func (c *Catalog) AllTags() []string {
	seen := make(map[string]struct{})
	for _, t := range c.doc.Tags {
		if name := strings.TrimSpace(t.Name); name != "" {
			seen[name] = struct{}{}
		}
	}
	for _, item := range c.doc.Paths.All() {
		if item == nil {
			continue
		}
		for _, method := range spec.Methods {
			if op := item.Operation(method); op != nil {
				for _, t := range operationTags(op) {
					seen[t] = struct{}{}
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Tags returns the document's declared tags in declaration order.
func (c *Catalog) Tags() []spec.Tag {
	return append([]spec.Tag(nil), c.doc.Tags...)
}

func operationTags(op *spec.Operation) []string {
	tags := make([]string, 0, len(op.Tags))
	for _, t := range op.Tags {
		if t = strings.TrimSpace(t); t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return []string{DefaultTag}
	}
	return tags
}
