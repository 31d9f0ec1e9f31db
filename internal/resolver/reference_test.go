package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/oascompose/internal/spec"
)

func mustParse(t *testing.T, components string) *spec.Document {
	t.Helper()
	doc, err := spec.Parse([]byte("openapi: 3.0.3\ninfo: { title: test, version: \"1\" }\npaths: {}\ncomponents:\n  schemas:\n" + components))
	require.NoError(t, err)
	return doc
}

func TestResolveReference_ExternalRejected(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, "    User: { type: object }\n"))
	for _, ref := range []string{
		"other.yaml#/components/schemas/User",
		"https://example.com/spec.yaml#/components/schemas/User",
		"",
		"components/schemas/User",
	} {
		_, err := r.ResolveReference(ref)
		assert.ErrorIs(t, err, spec.ErrExternalReferenceNotSupported, ref)
	}
}

func TestResolveReference_NotFound(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, "    User: { type: object }\n"))
	for _, ref := range []string{
		"#/components/schemas/Ghost",
		"#/components/parameters/User",
		"#/components/schemas/",
		"#/components/schemas/User/properties/id",
		"#/definitions/User",
		"#/",
	} {
		_, err := r.ResolveReference(ref)
		require.Error(t, err, ref)
		var se *spec.SpecError
		require.ErrorAs(t, err, &se, ref)
		assert.Equal(t, spec.ReferenceNotFound, se.Code, ref)
		assert.Equal(t, ref, se.Reference)
	}
}

func TestResolveReference_NoComponents(t *testing.T) {
	t.Parallel()
	doc, err := spec.Parse([]byte("openapi: 3.0.0\ninfo: { title: t, version: \"1\" }\n"))
	require.NoError(t, err)
	_, err = New(doc).ResolveReference("#/components/schemas/Any")
	assert.ErrorIs(t, err, spec.ErrReferenceNotFound)
}

func TestResolveReference_FollowsChain(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    A: { $ref: '#/components/schemas/B' }
    B: { $ref: '#/components/schemas/C' }
    C:
      type: object
      title: Terminal
`))
	s, err := r.ResolveReference("#/components/schemas/A")
	require.NoError(t, err)
	assert.Equal(t, "Terminal", s.Title)
}

func TestResolveReference_Cycle(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    A: { $ref: '#/components/schemas/B' }
    B: { $ref: '#/components/schemas/A' }
    Self: { $ref: '#/components/schemas/Self' }
`))
	_, err := r.ResolveReference("#/components/schemas/A")
	require.ErrorIs(t, err, spec.ErrCircularReference)
	assert.Contains(t, err.Error(), "#/components/schemas/A -> #/components/schemas/B -> #/components/schemas/A")

	_, err = r.ResolveReference("#/components/schemas/Self")
	assert.ErrorIs(t, err, spec.ErrCircularReference)
}

func TestResolveReference_BrokenChainReportsInnerRef(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, "    A: { $ref: '#/components/schemas/Missing' }\n"))
	_, err := r.ResolveReference("#/components/schemas/A")
	var se *spec.SpecError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, spec.ReferenceNotFound, se.Code)
	assert.Equal(t, "#/components/schemas/Missing", se.Reference)
}

func TestResolveReference_EscapedName(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, "    \"a/b~c\": { type: string, title: Escaped }\n"))
	s, err := r.ResolveReference(spec.SchemaPointer("a/b~c"))
	require.NoError(t, err)
	assert.Equal(t, "Escaped", s.Title)
}

func TestResolveReference_ReturnsCopy(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, `    Pet:
      type: object
      required: [id]
      properties:
        id: { type: integer }
`)
	r := New(doc)
	s, err := r.ResolveReference("#/components/schemas/Pet")
	require.NoError(t, err)
	s.Required[0] = "mutated"
	s.Properties.Set("extra", spec.NewInline(&spec.Schema{}))

	orig, _ := doc.Schema("Pet")
	assert.Equal(t, []string{"id"}, orig.Schema.Required)
	assert.Equal(t, []string{"id"}, orig.Schema.Properties.Keys())
}

func TestSchemaName(t *testing.T) {
	t.Parallel()
	name, err := SchemaName("#/components/schemas/Pet~1Dog")
	require.NoError(t, err)
	assert.Equal(t, "Pet/Dog", name)

	_, err = SchemaName("Pet")
	assert.ErrorIs(t, err, spec.ErrExternalReferenceNotSupported)
}
