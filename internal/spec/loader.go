package spec

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/invopop/yaml"
	yamlv3 "gopkg.in/yaml.v3"
)

// Settings controls how Load reaches and checks a document.
type Settings struct {
	// HTTPTimeout caps a single request, body included.
	HTTPTimeout time.Duration
	// MaxRetries is the number of attempts made for 5xx, 429 and transport
	// failures. Values below 1 mean a single attempt.
	MaxRetries int
	// BackoffBase is the first retry delay; each later retry doubles it.
	BackoffBase time.Duration
	// MaxBodyBytes caps the size of a fetched document. Zero means no cap.
	MaxBodyBytes int64
	// StrictValidation additionally runs the full kin-openapi validator and
	// fails on any violation it reports.
	StrictValidation bool
}

func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout:  10 * time.Second,
		MaxRetries:   3,
		BackoffBase:  200 * time.Millisecond,
		MaxBodyBytes: 32 << 20,
	}
}

type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithMaxBodyBytes(n int64) Option        { return func(s *Settings) { s.MaxBodyBytes = n } }
func WithStrictValidation(strict bool) Option {
	return func(s *Settings) { s.StrictValidation = strict }
}

func newSettings(opts []Option) Settings {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	return settings
}

// Load reads and validates an OpenAPI document. Swagger 2.0 input is
// converted to 3.x through kin-openapi before decoding.
//
// input may be a filesystem path or an http/https URL. file:// URLs and other
// schemes are rejected.
func Load(ctx context.Context, input string, opts ...Option) (*Document, error) {
	raw, location, err := readInput(ctx, input, newSettings(opts))
	if err != nil {
		return nil, err
	}
	doc, err := LoadData(ctx, raw, opts...)
	if err != nil {
		var se *SpecError
		if errors.As(err, &se) && se.Location == "" {
			se.Location = location
		}
		return nil, err
	}
	return doc, nil
}

// readInput returns the raw bytes of input and the location errors report:
// the URL as given, or the absolute file path.
func readInput(ctx context.Context, input string, settings Settings) ([]byte, string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, "", &SpecError{Code: InputError, Message: "spec: input is empty"}
	}

	if u, err := url.Parse(input); err == nil && u.Scheme != "" && (u.Host != "" || strings.EqualFold(u.Scheme, "file")) {
		switch scheme := strings.ToLower(u.Scheme); scheme {
		case "http", "https":
			data, err := newFetcher(settings).get(ctx, input)
			if err != nil {
				return nil, "", &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
			}
			return data, input, nil
		case "file":
			return nil, "", &SpecError{Code: InputError, Message: "spec: file:// URLs are not supported, pass a path instead", Location: input}
		default:
			return nil, "", &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, "", &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, "", &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return data, abs, nil
}

// LoadData is Load for in-memory documents.
func LoadData(ctx context.Context, raw []byte, opts ...Option) (*Document, error) {
	settings := newSettings(opts)

	version, err := detectSpecVersion(raw)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Cause: err}
	}

	if version == 2 {
		if fixed, changed, _ := preprocessV2ForCompatibility(raw); changed {
			raw = fixed
		}
		v3doc, err := convertV2ToV3(raw)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Cause: err}
		}
		if settings.StrictValidation {
			if err := v3doc.Validate(ctx); err != nil {
				return nil, mapValidateOrParseErr(err, "")
			}
		}
		converted, err := jsonAPI.Marshal(v3doc)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("encode converted document: %v", err), Cause: err}
		}
		return Parse(converted)
	}

	// Our own validation runs first so missing fields and wrong versions
	// surface with their dedicated codes.
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if settings.StrictValidation {
		if err := validateStrict(ctx, raw); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func validateStrict(ctx context.Context, raw []byte) error {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	t, err := loader.LoadFromData(raw)
	if err != nil {
		return mapValidateOrParseErr(err, "")
	}
	if err := t.Validate(ctx); err != nil {
		return mapValidateOrParseErr(err, "")
	}
	return nil
}

// detectSpecVersion returns 2 for Swagger 2.x and 3 for everything else;
// Parse reports missing or unsupported openapi versions.
func detectSpecVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yamlv3.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse spec: %w", err)
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2, nil
		}
	}
	return 3, nil
}

func convertV2ToV3(data []byte) (*openapi3.T, error) {
	// kin-openapi types only carry json tags, so go through JSON.
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	var v2 openapi2.T
	if err := jsonAPI.Unmarshal(jsonData, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "parse") || strings.Contains(lower, "invalid character") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}
