package resolver

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/oascompose/internal/spec"
)

func resolveNamed(t *testing.T, r *Resolver, name string) *ResolvedSchema {
	t.Helper()
	rs, err := r.ResolveSchema(spec.NewRef(spec.SchemaPointer(name)))
	require.NoError(t, err)
	require.NotNil(t, rs.Schema)
	assert.Empty(t, rs.Schema.AllOf)
	assert.Empty(t, rs.Schema.OneOf)
	assert.Empty(t, rs.Schema.AnyOf)
	return rs
}

func propType(t *testing.T, s *spec.Schema, name string) string {
	t.Helper()
	p, ok := s.Properties.Get(name)
	require.True(t, ok, "property %s", name)
	require.NotNil(t, p.Schema, "property %s", name)
	return p.Schema.Type
}

func TestAllOf_Union(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    A:
      type: object
      required: [x]
      properties:
        x: { type: string }
    B:
      type: object
      required: [y, x]
      properties:
        y: { type: integer }
    C:
      allOf:
        - $ref: '#/components/schemas/A'
        - $ref: '#/components/schemas/B'
`))
	rs := resolveNamed(t, r, "C")
	assert.Equal(t, AllOf, rs.Composition)
	assert.Empty(t, rs.Variants)
	assert.Equal(t, []string{"x", "y"}, rs.Schema.Properties.Keys())
	assert.Equal(t, []string{"x", "y"}, rs.Schema.Required)
	assert.Equal(t, "object", rs.Schema.Type)
}

func TestAllOf_LaterMemberOverrides(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    C:
      allOf:
        - properties:
            x: { type: string }
            z: { type: boolean }
        - properties:
            x: { type: integer }
            w: { type: number }
`))
	rs := resolveNamed(t, r, "C")
	assert.Equal(t, "integer", propType(t, rs.Schema, "x"))
	assert.Equal(t, []string{"x", "z", "w"}, rs.Schema.Properties.Keys())
}

func TestAllOf_MetadataPrecedence(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Base:
      title: BaseTitle
      description: base description
      example: { id: 1 }
    Other:
      title: OtherTitle
      description: other description
    Titled:
      title: Mine
      allOf:
        - $ref: '#/components/schemas/Base'
        - $ref: '#/components/schemas/Other'
    Untitled:
      allOf:
        - $ref: '#/components/schemas/Other'
        - $ref: '#/components/schemas/Base'
`))
	titled := resolveNamed(t, r, "Titled")
	assert.Equal(t, "Mine", titled.Schema.Title)
	assert.Equal(t, "base description", titled.Schema.Description)
	assert.Equal(t, map[string]any{"id": 1}, titled.Schema.Example)

	untitled := resolveNamed(t, r, "Untitled")
	assert.Equal(t, "OtherTitle", untitled.Schema.Title)
	assert.Equal(t, "other description", untitled.Schema.Description)
	assert.Equal(t, map[string]any{"id": 1}, untitled.Schema.Example)
}

func TestAllOf_NestedAndDiamond(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Root:
      properties:
        id: { type: string }
      required: [id]
    Left:
      allOf:
        - $ref: '#/components/schemas/Root'
        - properties:
            left: { type: string }
    Right:
      allOf:
        - $ref: '#/components/schemas/Root'
        - properties:
            right: { type: string }
    Diamond:
      allOf:
        - $ref: '#/components/schemas/Left'
        - $ref: '#/components/schemas/Right'
        - allOf:
            - properties:
                inner: { type: string }
`))
	rs := resolveNamed(t, r, "Diamond")
	assert.Equal(t, []string{"id", "left", "right", "inner"}, rs.Schema.Properties.Keys())
	assert.Equal(t, []string{"id"}, rs.Schema.Required)
}

func TestAllOf_DoesNotComposeMemberOneOf(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Pet:
      properties:
        name: { type: string }
      oneOf:
        - properties:
            bark: { type: boolean }
    Dog:
      allOf:
        - $ref: '#/components/schemas/Pet'
`))
	rs := resolveNamed(t, r, "Dog")
	assert.Equal(t, []string{"name"}, rs.Schema.Properties.Keys())
}

func TestAllOf_Cycle(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    A:
      allOf:
        - $ref: '#/components/schemas/B'
    B:
      allOf:
        - $ref: '#/components/schemas/A'
`))
	_, err := r.ResolveSchema(spec.NewRef("#/components/schemas/A"))
	assert.ErrorIs(t, err, spec.ErrCircularReference)

	b, _ := r.Document().Schema("B")
	_, err = r.ResolveSchema(b)
	assert.ErrorIs(t, err, spec.ErrCircularReference)
}

func TestAllOf_ConflictingTypes(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Bad:
      allOf:
        - type: string
        - type: object
    Narrowed:
      allOf:
        - type: number
        - type: integer
`))
	_, err := r.ResolveSchema(spec.NewRef("#/components/schemas/Bad"))
	require.ErrorIs(t, err, spec.ErrSchemaComposition)
	var se *spec.SpecError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "#/components/schemas/Bad", se.JSONPointer)

	assert.Equal(t, "integer", resolveNamed(t, r, "Narrowed").Schema.Type)
}

func TestAllOf_EmptyMember(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Holey:
      allOf:
        - ~
        - type: object
`))
	_, err := r.ResolveSchema(spec.NewRef("#/components/schemas/Holey"))
	assert.ErrorIs(t, err, spec.ErrSchemaComposition)
}

func TestAllOf_MemberReferenceErrorsPropagate(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Broken:
      allOf:
        - $ref: 'common.yaml#/Base'
`))
	_, err := r.ResolveSchema(spec.NewRef("#/components/schemas/Broken"))
	assert.ErrorIs(t, err, spec.ErrExternalReferenceNotSupported)
}

func TestOneOf_VariantNamingAndDiscriminator(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Dog:
      title: Dog
      type: object
      properties:
        bark: { type: boolean }
    Pet:
      oneOf:
        - $ref: '#/components/schemas/Dog'
        - type: object
          properties:
            meow: { type: boolean }
      discriminator:
        propertyName: petType
`))
	rs := resolveNamed(t, r, "Pet")
	assert.Equal(t, OneOf, rs.Composition)
	assert.Equal(t, []string{"Dog", "Variant2"}, rs.VariantNames())
	assert.Equal(t, "#/components/schemas/Dog", rs.Variants[0].Ref)
	assert.Empty(t, rs.Variants[1].Ref)
	assert.Equal(t, "string", propType(t, rs.Schema, "petType"))
	assert.Equal(t, []string{"petType"}, rs.Schema.Required)
	assert.False(t, rs.Schema.Properties.Has("bark"), "oneOf does not merge member properties")
	require.NotNil(t, rs.Schema.Discriminator)
	assert.Equal(t, "petType", rs.Schema.Discriminator.PropertyName)
}

func TestOneOf_DiscriminatorInjectionIsIdempotent(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Shape:
      type: object
      required: [kind, area]
      properties:
        kind:
          type: string
          enum: [circle, square]
        area: { type: number }
      oneOf:
        - title: Circle
        - title: Square
      discriminator:
        propertyName: kind
`))
	rs := resolveNamed(t, r, "Shape")
	kind, _ := rs.Schema.Properties.Get("kind")
	assert.Equal(t, []any{"circle", "square"}, kind.Schema.Enum, "declared property kept")
	assert.Equal(t, []string{"kind", "area"}, rs.Schema.Properties.Keys())
	assert.Equal(t, []string{"kind", "area"}, rs.Schema.Required)
	assert.Equal(t, []string{"Circle", "Square"}, rs.VariantNames())
}

func TestOneOf_VariantsAreOneHop(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Base:
      properties:
        id: { type: string }
    Derived:
      allOf:
        - $ref: '#/components/schemas/Base'
    Union:
      oneOf:
        - $ref: '#/components/schemas/Derived'
`))
	rs := resolveNamed(t, r, "Union")
	require.Len(t, rs.Variants, 1)
	assert.Len(t, rs.Variants[0].Schema.AllOf, 1, "variant keeps its own composition")
	assert.Equal(t, "Variant1", rs.Variants[0].Name)
}

func TestUnion_SelfReferencingVariant(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Leaf:
      properties:
        value: { type: number }
    Expr:
      oneOf:
        - $ref: '#/components/schemas/Leaf'
        - $ref: '#/components/schemas/Expr'
    Any:
      anyOf:
        - $ref: '#/components/schemas/Leaf'
        - $ref: '#/components/schemas/Any'
    Alias: { $ref: '#/components/schemas/Expr' }
    Loop: { $ref: '#/components/schemas/Back' }
    Back: { $ref: '#/components/schemas/Loop' }
    Broken:
      oneOf:
        - $ref: '#/components/schemas/Loop'
`))
	for _, name := range []string{"Expr", "Alias"} {
		rs := resolveNamed(t, r, name)
		assert.Equal(t, OneOf, rs.Composition, name)
		require.Len(t, rs.Variants, 2, name)
		assert.Equal(t, "#/components/schemas/Leaf", rs.Variants[0].Ref)
		assert.Equal(t, "#/components/schemas/Expr", rs.Variants[1].Ref)
		assert.Len(t, rs.Variants[1].Schema.OneOf, 2, "self variant is not expanded")
	}

	rs := resolveNamed(t, r, "Any")
	assert.Equal(t, AnyOf, rs.Composition)
	require.Len(t, rs.Variants, 2)
	assert.Equal(t, "#/components/schemas/Any", rs.Variants[1].Ref)
	assert.Equal(t, []string{"value"}, rs.Schema.Properties.Keys())

	_, err := r.ResolveSchema(spec.NewRef("#/components/schemas/Broken"))
	assert.ErrorIs(t, err, spec.ErrCircularReference, "a chain cycle inside a variant still fails")
}

func TestAnyOf_RequiredUnion(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    AB:
      anyOf:
        - required: [a]
          properties:
            a: { type: string }
        - required: [b]
          properties:
            b: { type: string }
    BA:
      anyOf:
        - required: [b]
          properties:
            b: { type: string }
        - required: [a]
          properties:
            a: { type: string }
`))
	ab := resolveNamed(t, r, "AB")
	ba := resolveNamed(t, r, "BA")
	assert.ElementsMatch(t, []string{"a", "b"}, ab.Schema.Required)
	assert.ElementsMatch(t, ab.Schema.Required, ba.Schema.Required)
	assert.Equal(t, AnyOf, ab.Composition)
	assert.Equal(t, []string{"Option1", "Option2"}, ab.VariantNames())
}

func TestAnyOf_PropertiesUnionLaterWins(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Email:
      title: Email
      properties:
        value: { type: string }
        verified: { type: boolean }
    Phone:
      properties:
        value: { type: integer }
    Contact:
      properties:
        label: { type: string }
      required: [label]
      anyOf:
        - $ref: '#/components/schemas/Email'
        - $ref: '#/components/schemas/Phone'
`))
	rs := resolveNamed(t, r, "Contact")
	assert.Equal(t, []string{"label", "value", "verified"}, rs.Schema.Properties.Keys())
	assert.Equal(t, "integer", propType(t, rs.Schema, "value"))
	assert.Equal(t, []string{"label"}, rs.Schema.Required)
	assert.Equal(t, []string{"Email", "Option2"}, rs.VariantNames())
}

func TestComposition_Priority(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Mixed:
      allOf:
        - properties:
            a: { type: string }
      oneOf:
        - title: Ignored
      anyOf:
        - title: AlsoIgnored
    OneAny:
      oneOf:
        - title: Kept
      anyOf:
        - title: Ignored
`))
	mixed := resolveNamed(t, r, "Mixed")
	assert.Equal(t, AllOf, mixed.Composition)
	assert.Empty(t, mixed.Variants)

	oneAny := resolveNamed(t, r, "OneAny")
	assert.Equal(t, OneOf, oneAny.Composition)
	assert.Equal(t, []string{"Kept"}, oneAny.VariantNames())
}

func TestResolveSchema_PassThroughIsIdempotent(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, `    Plain:
      type: object
      required: [id]
      properties:
        id: { type: integer }
        tags:
          type: array
          items: { type: string }
`)
	r := New(doc)
	entry, _ := doc.Schema("Plain")

	first, err := r.ResolveSchema(entry)
	require.NoError(t, err)
	second, err := r.ResolveSchema(entry)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, None, first.Composition)
	assert.Equal(t, entry.Schema, first.Schema)

	first.Schema.Required = append(first.Schema.Required, "extra")
	assert.Equal(t, []string{"id"}, entry.Schema.Required)
}

func TestResolveSchema_ReferenceToComposition(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Alias: { $ref: '#/components/schemas/Merged' }
    Merged:
      allOf:
        - properties:
            a: { type: string }
`))
	rs := resolveNamed(t, r, "Alias")
	assert.Equal(t, AllOf, rs.Composition)
	assert.Equal(t, []string{"a"}, rs.Schema.Properties.Keys())
}

func TestResolveSchema_StructuralRecursionAllowed(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, `    Node:
      type: object
      properties:
        value: { type: string }
        children:
          type: array
          items: { $ref: '#/components/schemas/Node' }
    Tree:
      allOf:
        - $ref: '#/components/schemas/Node'
`))
	rs := resolveNamed(t, r, "Tree")
	children, _ := rs.Schema.Properties.Get("children")
	assert.Equal(t, "#/components/schemas/Node", children.Schema.Items.RefString())
}

func TestResolveSchema_Nil(t *testing.T) {
	t.Parallel()
	r := New(mustParse(t, "    A: { type: string }\n"))
	_, err := r.ResolveSchema(nil)
	assert.ErrorIs(t, err, spec.ErrSchemaComposition)
}

func TestResolveSchema_ConcurrentCallers(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, `    A:
      properties:
        a: { type: string }
    B:
      allOf:
        - $ref: '#/components/schemas/A'
        - properties:
            b: { type: string }
    C:
      oneOf:
        - $ref: '#/components/schemas/B'
      discriminator:
        propertyName: kind
`)
	r := New(doc)
	want := map[string]*ResolvedSchema{}
	for _, name := range doc.SchemaNames() {
		want[name] = resolveNamed(t, r, name)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		for _, name := range doc.SchemaNames() {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				got, err := r.ResolveSchema(spec.NewRef(spec.SchemaPointer(name)))
				if err != nil {
					errs <- err
					return
				}
				got.Schema.Title = "scribble"
			}(name)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	for _, name := range doc.SchemaNames() {
		again := resolveNamed(t, r, name)
		assert.Equal(t, want[name], again, name)
	}
}
