package spec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"

	MissingField              ErrorCode = "MissingField"
	UnsupportedOpenAPIVersion ErrorCode = "UnsupportedOpenAPIVersion"

	ExternalReferenceNotSupported ErrorCode = "ExternalReferenceNotSupported"
	ReferenceNotFound             ErrorCode = "ReferenceNotFound"
	CircularReference             ErrorCode = "CircularReference"
	SchemaCompositionError        ErrorCode = "SchemaCompositionError"
)

// Sentinels for errors.Is. Every *SpecError matches the sentinel of its Code.
var (
	ErrInput                         = errors.New("input error")
	ErrNetwork                       = errors.New("network error")
	ErrParse                         = errors.New("parse error")
	ErrValidation                    = errors.New("validation error")
	ErrConversion                    = errors.New("conversion error")
	ErrMissingField                  = errors.New("missing required field")
	ErrUnsupportedOpenAPIVersion     = errors.New("unsupported openapi version")
	ErrExternalReferenceNotSupported = errors.New("external reference not supported")
	ErrReferenceNotFound             = errors.New("reference not found")
	ErrCircularReference             = errors.New("circular reference")
	ErrSchemaComposition             = errors.New("schema composition error")
)

var sentinels = map[ErrorCode]error{
	InputError:                    ErrInput,
	NetworkError:                  ErrNetwork,
	ParseError:                    ErrParse,
	ValidationError:               ErrValidation,
	ConversionError:               ErrConversion,
	MissingField:                  ErrMissingField,
	UnsupportedOpenAPIVersion:     ErrUnsupportedOpenAPIVersion,
	ExternalReferenceNotSupported: ErrExternalReferenceNotSupported,
	ReferenceNotFound:             ErrReferenceNotFound,
	CircularReference:             ErrCircularReference,
	SchemaCompositionError:        ErrSchemaComposition,
}

// SpecError is a structured error with optional location, JSON Pointer and
// the offending reference.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Reference   string // $ref being resolved, if any
	Field       string // missing field, for MissingField
	Version     string // declared version, for UnsupportedOpenAPIVersion
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

func (e *SpecError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// CodeOf returns the Code of the first *SpecError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var se *SpecError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func missingFieldError(field string) *SpecError {
	return &SpecError{
		Code:        MissingField,
		Message:     fmt.Sprintf("missing required field %q", field),
		Field:       field,
		JSONPointer: "#/" + strings.ReplaceAll(field, ".", "/"),
	}
}

func unsupportedVersionError(version string) *SpecError {
	return &SpecError{
		Code:        UnsupportedOpenAPIVersion,
		Message:     fmt.Sprintf("unsupported OpenAPI version %q (only 3.x is supported)", version),
		Version:     version,
		JSONPointer: "#/openapi",
	}
}

// ExternalReferenceError reports a $ref pointing outside the document.
func ExternalReferenceError(ref string) *SpecError {
	return &SpecError{
		Code:      ExternalReferenceNotSupported,
		Message:   fmt.Sprintf("external reference %q not supported", ref),
		Reference: ref,
	}
}

// ReferenceNotFoundError reports a $ref whose shape or target is unknown.
func ReferenceNotFoundError(ref string) *SpecError {
	return &SpecError{
		Code:      ReferenceNotFound,
		Message:   fmt.Sprintf("reference %q not found", ref),
		Reference: ref,
	}
}

// CircularReferenceError reports ref reappearing in chain.
func CircularReferenceError(ref string, chain []string) *SpecError {
	msg := fmt.Sprintf("circular reference detected: %s", ref)
	if len(chain) > 0 {
		msg = fmt.Sprintf("%s (chain: %s -> %s)", msg, strings.Join(chain, " -> "), ref)
	}
	return &SpecError{Code: CircularReference, Message: msg, Reference: ref}
}

// CompositionError reports a failure while merging keyword members. path is
// the JSON pointer of the combining schema when known.
func CompositionError(keyword, path, reason string) *SpecError {
	where := path
	if where == "" {
		where = "<inline>"
	}
	return &SpecError{
		Code:        SchemaCompositionError,
		Message:     fmt.Sprintf("schema composition error in %s at %s: %s", keyword, where, reason),
		JSONPointer: path,
	}
}
