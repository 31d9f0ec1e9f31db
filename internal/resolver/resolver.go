// Package resolver follows schema references within one OpenAPI document and
// flattens allOf, oneOf and anyOf into a single schema plus variant metadata.
//
// A Resolver never mutates its Document and keeps no state between calls, so
// one instance may be shared by any number of goroutines.
package resolver

import "github.com/mark3labs/oascompose/internal/spec"

type Resolver struct {
	doc *spec.Document
}

// New returns a Resolver over doc. doc must not be modified afterwards.
func New(doc *spec.Document) *Resolver {
	return &Resolver{doc: doc}
}

// Document returns the document being resolved against.
func (r *Resolver) Document() *spec.Document { return r.doc }

// chain is the list of pointers followed on the current resolution path.
// push copies, so sibling branches never see each other's entries.
type chain []string

func (c chain) has(ref string) bool {
	for _, seen := range c {
		if seen == ref {
			return true
		}
	}
	return false
}

func (c chain) push(ref string) chain {
	out := make(chain, len(c), len(c)+1)
	copy(out, c)
	return append(out, ref)
}
