package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesSampleConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	out, err := run(t, "init", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote sample config to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# oascompose configuration")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestInit_ExistingWithoutForce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "x")

	_, err := run(t, "init", "--out", path)
	require.ErrorIs(t, err, ErrUsage)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "init", "--out", path, "--force")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, "x", string(data))
}

// Every key in the sample, once uncommented, must load cleanly.
func TestInit_SampleKeysAreAccepted(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, runInit(context.Background(), &InitConfig{OutputPath: path}, &bytes.Buffer{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var uncommented bytes.Buffer
	for _, line := range bytes.Split(data, []byte("\n")) {
		if rest, ok := bytes.CutPrefix(line, []byte("# ")); ok && bytes.Contains(rest, []byte(": ")) && !bytes.HasPrefix(rest, []byte("Logging")) {
			uncommented.Write(rest)
			uncommented.WriteByte('\n')
		}
	}
	cfg := defaultConfig()
	require.NoError(t, applyConfigFromFile(&cfg, writeFile(t, dir, "uncommented.yaml", uncommented.String())))
	assert.Equal(t, "./openapi.yaml", cfg.Input)
	assert.Equal(t, []string{"^/pets"}, cfg.PathPatterns)
	assert.Equal(t, "./oascompose.log", cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)
}
