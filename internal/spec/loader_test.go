package spec

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstore = `openapi: 3.0.3
info:
  title: Petstore
  version: "1.0.0"
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        "200":
          description: ok
components:
  schemas:
    Pet:
      type: object
      properties:
        id: { type: integer }
`

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600))
	return path
}

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file:///etc/hosts")
	require.Error(t, err)
	assert.Equal(t, InputError, CodeOf(err))
	assert.ErrorIs(t, err, ErrInput)
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/spec.yaml")
	require.Error(t, err)
	assert.Equal(t, InputError, CodeOf(err))
}

func TestLoad_EmptyInput(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "  ")
	assert.Equal(t, InputError, CodeOf(err))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, InputError, CodeOf(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, "http://127.0.0.1:1/spec.yaml",
		WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
	require.Error(t, err)
	assert.Equal(t, NetworkError, CodeOf(err))
}

func TestLoad_HTTPRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(petstore))
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL+"/openapi.yaml", WithBackoffBase(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "Petstore", doc.Info.Title)
	assert.EqualValues(t, 2, calls.Load())
}

func TestLoad_HTTPClientErrorNotRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL, WithBackoffBase(time.Millisecond))
	require.Error(t, err)
	assert.Equal(t, NetworkError, CodeOf(err))
	assert.Contains(t, err.Error(), "404")
	assert.EqualValues(t, 1, calls.Load())
}

func TestLoad_V3_File(t *testing.T) {
	t.Parallel()
	doc, err := Load(context.Background(), writeSpec(t, "openapi.yaml", petstore))
	require.NoError(t, err)
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Equal(t, []string{"Pet"}, doc.SchemaNames())
}

func TestLoad_V3_StrictValidation(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "bad.yaml", `openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`)

	_, err := Load(context.Background(), path)
	require.NoError(t, err, "lenient mode accepts empty responses")

	_, err = Load(context.Background(), path, WithStrictValidation(true))
	require.Error(t, err)
	var se *SpecError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, []ErrorCode{ValidationError, ParseError}, se.Code)
	assert.NotEmpty(t, se.Location)
}

func TestLoad_V3_ParseErrorCarriesLocation(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "broken.yaml", "openapi: [unclosed")
	_, err := Load(context.Background(), path)
	require.Error(t, err)
	var se *SpecError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ParseError, se.Code)
	assert.Equal(t, path, se.Location)
}

func TestLoad_V2_Conversion_Success(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "swagger.yaml", `swagger: "2.0"
info:
  title: Sample
  version: "1.0.0"
paths:
  "/hello":
    get:
      tags: [greet]
      operationId: hello
      responses:
        "200":
          description: ok
          schema:
            $ref: "#/definitions/Greeting"
definitions:
  Greeting:
    type: object
    properties:
      text: { type: string }
`)
	doc, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.OpenAPI, "3."), doc.OpenAPI)

	greeting, ok := doc.Schema("Greeting")
	require.True(t, ok)
	require.NotNil(t, greeting.Schema)
	assert.Equal(t, "object", greeting.Schema.Type)

	item, ok := doc.PathItem("/hello")
	require.True(t, ok)
	require.NotNil(t, item.Get)
	assert.Equal(t, []string{"greet"}, item.Get.Tags)
}

func TestLoad_V2_MissingInfo(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), writeSpec(t, "swagger-bad.yaml", `swagger: "2.0"
paths: {}
`))
	require.Error(t, err)
	assert.Contains(t, []ErrorCode{ConversionError, MissingField, ValidationError}, CodeOf(err))
}

func TestDetectSpecVersion(t *testing.T) {
	t.Parallel()
	v, err := detectSpecVersion([]byte(`swagger: "2.0"`))
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = detectSpecVersion([]byte(`openapi: 3.1.0`))
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = detectSpecVersion([]byte(`info: {}`))
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = detectSpecVersion([]byte("a: [b"))
	assert.Error(t, err)
}
