package spec

// Document model for OpenAPI 3.x documents. A Document is produced once by
// Parse or Load and treated as read-only afterwards.

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	DELETE  HttpMethod = "delete"
	PATCH   HttpMethod = "patch"
	HEAD    HttpMethod = "head"
	OPTIONS HttpMethod = "options"
	TRACE   HttpMethod = "trace"
)

// Methods lists the eight path item operations in their canonical scan order.
var Methods = []HttpMethod{GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS, TRACE}

type Document struct {
	OpenAPI    string                 `yaml:"openapi" json:"openapi"`
	Info       Info                   `yaml:"info" json:"info"`
	Servers    []Server               `yaml:"servers,omitempty" json:"servers,omitempty"`
	Paths      *OrderedMap[*PathItem] `yaml:"paths,omitempty" json:"paths,omitempty"`
	Components *Components            `yaml:"components,omitempty" json:"components,omitempty"`
	Tags       []Tag                  `yaml:"tags,omitempty" json:"tags,omitempty"`
	Security   []map[string][]string  `yaml:"security,omitempty" json:"security,omitempty"`
	Webhooks   *OrderedMap[*PathItem] `yaml:"webhooks,omitempty" json:"webhooks,omitempty"`
}

type Info struct {
	Title       string `yaml:"title" json:"title"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

type Server struct {
	URL         string `yaml:"url" json:"url"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

type Tag struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

type PathItem struct {
	Summary     string            `yaml:"summary,omitempty" json:"summary,omitempty"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Get         *Operation        `yaml:"get,omitempty" json:"get,omitempty"`
	Put         *Operation        `yaml:"put,omitempty" json:"put,omitempty"`
	Post        *Operation        `yaml:"post,omitempty" json:"post,omitempty"`
	Delete      *Operation        `yaml:"delete,omitempty" json:"delete,omitempty"`
	Options     *Operation        `yaml:"options,omitempty" json:"options,omitempty"`
	Head        *Operation        `yaml:"head,omitempty" json:"head,omitempty"`
	Patch       *Operation        `yaml:"patch,omitempty" json:"patch,omitempty"`
	Trace       *Operation        `yaml:"trace,omitempty" json:"trace,omitempty"`
	Parameters  []*ParameterOrRef `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Operation returns the operation registered for method, or nil.
func (p *PathItem) Operation(method HttpMethod) *Operation {
	if p == nil {
		return nil
	}
	switch method {
	case GET:
		return p.Get
	case POST:
		return p.Post
	case PUT:
		return p.Put
	case DELETE:
		return p.Delete
	case PATCH:
		return p.Patch
	case HEAD:
		return p.Head
	case OPTIONS:
		return p.Options
	case TRACE:
		return p.Trace
	}
	return nil
}

type Operation struct {
	OperationID string                      `yaml:"operationId,omitempty" json:"operationId,omitempty"`
	Summary     string                      `yaml:"summary,omitempty" json:"summary,omitempty"`
	Description string                      `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string                    `yaml:"tags,omitempty" json:"tags,omitempty"`
	Deprecated  bool                        `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
	Parameters  []*ParameterOrRef           `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	RequestBody *RequestBodyOrRef           `yaml:"requestBody,omitempty" json:"requestBody,omitempty"`
	Responses   *OrderedMap[*ResponseOrRef] `yaml:"responses,omitempty" json:"responses,omitempty"`
	Security    []map[string][]string       `yaml:"security,omitempty" json:"security,omitempty"`
}

type Parameter struct {
	Name        string                  `yaml:"name" json:"name"`
	In          string                  `yaml:"in" json:"in"` // path|query|header|cookie
	Description string                  `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool                    `yaml:"required,omitempty" json:"required,omitempty"`
	Deprecated  bool                    `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
	Style       string                  `yaml:"style,omitempty" json:"style,omitempty"`
	Explode     *bool                   `yaml:"explode,omitempty" json:"explode,omitempty"`
	Schema      *SchemaOrRef            `yaml:"schema,omitempty" json:"schema,omitempty"`
	Example     any                     `yaml:"example,omitempty" json:"example,omitempty"`
	Content     *OrderedMap[*MediaType] `yaml:"content,omitempty" json:"content,omitempty"`
}

type RequestBody struct {
	Description string                  `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool                    `yaml:"required,omitempty" json:"required,omitempty"`
	Content     *OrderedMap[*MediaType] `yaml:"content,omitempty" json:"content,omitempty"`
}

type Response struct {
	Description string                    `yaml:"description" json:"description"`
	Headers     *OrderedMap[*HeaderOrRef] `yaml:"headers,omitempty" json:"headers,omitempty"`
	Content     *OrderedMap[*MediaType]   `yaml:"content,omitempty" json:"content,omitempty"`
}

type Header struct {
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool         `yaml:"required,omitempty" json:"required,omitempty"`
	Deprecated  bool         `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
	Schema      *SchemaOrRef `yaml:"schema,omitempty" json:"schema,omitempty"`
}

type MediaType struct {
	Schema   *SchemaOrRef               `yaml:"schema,omitempty" json:"schema,omitempty"`
	Example  any                        `yaml:"example,omitempty" json:"example,omitempty"`
	Examples *OrderedMap[*ExampleOrRef] `yaml:"examples,omitempty" json:"examples,omitempty"`
}

type Example struct {
	Summary       string `yaml:"summary,omitempty" json:"summary,omitempty"`
	Description   string `yaml:"description,omitempty" json:"description,omitempty"`
	Value         any    `yaml:"value,omitempty" json:"value,omitempty"`
	ExternalValue string `yaml:"externalValue,omitempty" json:"externalValue,omitempty"`
}

type SecurityScheme struct {
	Type             string `yaml:"type" json:"type"` // apiKey|http|oauth2|openIdConnect|mutualTLS
	Description      string `yaml:"description,omitempty" json:"description,omitempty"`
	Name             string `yaml:"name,omitempty" json:"name,omitempty"`
	In               string `yaml:"in,omitempty" json:"in,omitempty"`
	Scheme           string `yaml:"scheme,omitempty" json:"scheme,omitempty"`
	BearerFormat     string `yaml:"bearerFormat,omitempty" json:"bearerFormat,omitempty"`
	OpenIDConnectURL string `yaml:"openIdConnectUrl,omitempty" json:"openIdConnectUrl,omitempty"`
	Flows            any    `yaml:"flows,omitempty" json:"flows,omitempty"`
}

// Components is the table of reusable named objects.
type Components struct {
	Schemas         *OrderedMap[*SchemaOrRef]         `yaml:"schemas,omitempty" json:"schemas,omitempty"`
	Parameters      *OrderedMap[*ParameterOrRef]      `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Responses       *OrderedMap[*ResponseOrRef]       `yaml:"responses,omitempty" json:"responses,omitempty"`
	RequestBodies   *OrderedMap[*RequestBodyOrRef]    `yaml:"requestBodies,omitempty" json:"requestBodies,omitempty"`
	Headers         *OrderedMap[*HeaderOrRef]         `yaml:"headers,omitempty" json:"headers,omitempty"`
	SecuritySchemes *OrderedMap[*SecuritySchemeOrRef] `yaml:"securitySchemes,omitempty" json:"securitySchemes,omitempty"`
}

// Schema is a single schema node. Inline sub-schemas are owned by value
// through SchemaOrRef; recursion between named types only ever happens
// through a Ref into Components.Schemas.
type Schema struct {
	Type        string `yaml:"type,omitempty" json:"type,omitempty"` // string|integer|number|boolean|array|object
	Format      string `yaml:"format,omitempty" json:"format,omitempty"`
	Title       string `yaml:"title,omitempty" json:"title,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Default     any    `yaml:"default,omitempty" json:"default,omitempty"`
	Example     any    `yaml:"example,omitempty" json:"example,omitempty"`
	Enum        []any  `yaml:"enum,omitempty" json:"enum,omitempty"`
	Const       any    `yaml:"const,omitempty" json:"const,omitempty"`

	MultipleOf       *float64 `yaml:"multipleOf,omitempty" json:"multipleOf,omitempty"`
	Minimum          *float64 `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum          *float64 `yaml:"maximum,omitempty" json:"maximum,omitempty"`
	ExclusiveMinimum any      `yaml:"exclusiveMinimum,omitempty" json:"exclusiveMinimum,omitempty"` // bool in 3.0, number in 3.1
	ExclusiveMaximum any      `yaml:"exclusiveMaximum,omitempty" json:"exclusiveMaximum,omitempty"`

	MinLength *uint64 `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength *uint64 `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	Pattern   string  `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	Items       *SchemaOrRef `yaml:"items,omitempty" json:"items,omitempty"`
	MinItems    *uint64      `yaml:"minItems,omitempty" json:"minItems,omitempty"`
	MaxItems    *uint64      `yaml:"maxItems,omitempty" json:"maxItems,omitempty"`
	UniqueItems bool         `yaml:"uniqueItems,omitempty" json:"uniqueItems,omitempty"`

	Properties           *OrderedMap[*SchemaOrRef] `yaml:"properties,omitempty" json:"properties,omitempty"`
	Required             []string                  `yaml:"required,omitempty" json:"required,omitempty"`
	AdditionalProperties *AdditionalProperties     `yaml:"additionalProperties,omitempty" json:"additionalProperties,omitempty"`
	MinProperties        *uint64                   `yaml:"minProperties,omitempty" json:"minProperties,omitempty"`
	MaxProperties        *uint64                   `yaml:"maxProperties,omitempty" json:"maxProperties,omitempty"`

	AllOf []*SchemaOrRef `yaml:"allOf,omitempty" json:"allOf,omitempty"`
	OneOf []*SchemaOrRef `yaml:"oneOf,omitempty" json:"oneOf,omitempty"`
	AnyOf []*SchemaOrRef `yaml:"anyOf,omitempty" json:"anyOf,omitempty"`
	// Not is carried as data only; it is never resolved.
	Not *SchemaOrRef `yaml:"not,omitempty" json:"not,omitempty"`

	Discriminator *Discriminator `yaml:"discriminator,omitempty" json:"discriminator,omitempty"`
	Nullable      bool           `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	ReadOnly      bool           `yaml:"readOnly,omitempty" json:"readOnly,omitempty"`
	WriteOnly     bool           `yaml:"writeOnly,omitempty" json:"writeOnly,omitempty"`
	Deprecated    bool           `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`

	// Extensions holds x- prefixed keys.
	Extensions map[string]any `yaml:"-" json:"-"`
}

// HasComposition reports whether any of allOf, oneOf or anyOf is present.
func (s *Schema) HasComposition() bool {
	return s != nil && (len(s.AllOf) > 0 || len(s.OneOf) > 0 || len(s.AnyOf) > 0)
}

type Discriminator struct {
	PropertyName string              `yaml:"propertyName" json:"propertyName"`
	Mapping      *OrderedMap[string] `yaml:"mapping,omitempty" json:"mapping,omitempty"`
}

// AdditionalProperties is either a boolean or a schema.
type AdditionalProperties struct {
	Allowed *bool
	Schema  *SchemaOrRef
}

type SchemaRef struct {
	Ref string `yaml:"$ref" json:"$ref"`
}

// SchemaOrRef is either an inline Schema or a Ref, never both.
type SchemaOrRef struct {
	Schema *Schema
	Ref    *SchemaRef
}

// NewRef returns a reference to ref.
func NewRef(ref string) *SchemaOrRef {
	return &SchemaOrRef{Ref: &SchemaRef{Ref: ref}}
}

// NewInline wraps s as an inline schema.
func NewInline(s *Schema) *SchemaOrRef {
	return &SchemaOrRef{Schema: s}
}

func (s *SchemaOrRef) IsRef() bool { return s != nil && s.Ref != nil }

// RefString returns the pointer string, or "" for inline schemas.
func (s *SchemaOrRef) RefString() string {
	if s.IsRef() {
		return s.Ref.Ref
	}
	return ""
}

// OrRef is the schema-or-reference pattern for the other component kinds.
type OrRef[T any] struct {
	Value *T
	Ref   string
}

type (
	ParameterOrRef      = OrRef[Parameter]
	RequestBodyOrRef    = OrRef[RequestBody]
	ResponseOrRef       = OrRef[Response]
	HeaderOrRef         = OrRef[Header]
	ExampleOrRef        = OrRef[Example]
	SecuritySchemeOrRef = OrRef[SecurityScheme]
)
