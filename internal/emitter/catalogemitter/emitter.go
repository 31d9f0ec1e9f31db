// Package catalogemitter writes a resolved catalog to disk: one file per
// component schema plus the operations-by-tag index and the tag list.
package catalogemitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/oascompose/internal/catalog"
	"github.com/mark3labs/oascompose/internal/logging"
	"github.com/mark3labs/oascompose/internal/spec"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrOutDirNotEmpty is returned when OutDir has entries and Force is unset.
var ErrOutDirNotEmpty = errors.New("catalogemitter: output directory is not empty")

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unsupported format %q (want json or yaml)", s)
}

// Options controls how the catalog is rendered.
type Options struct {
	OutDir  string // required; target directory
	Format  Format // json (default) or yaml
	Workers int    // schema render concurrency; defaults to GOMAXPROCS
	Force   bool   // write into a non-empty directory
	DryRun  bool   // plan only
	Logger  *slog.Logger
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result lists the planned files in sorted order.
type Result struct {
	Format  Format
	Schemas int
	Planned []PlannedFile
}

// Source is the part of *catalog.Catalog the emitter reads.
type Source interface {
	AllSchemas() ([]catalog.NamedSchema, error)
	OperationsByTag() (map[string][]catalog.TaggedOperation, error)
	AllTags() []string
	Tags() []spec.Tag
}

// Emit resolves everything first and writes only when every schema resolved
// and rendered, so a failed run leaves OutDir untouched.
func Emit(ctx context.Context, src Source, opts Options) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("catalogemitter: nil source")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("catalogemitter: OutDir is required")
	}
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return nil, fmt.Errorf("catalogemitter: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	schemas, err := src.AllSchemas()
	if err != nil {
		return nil, err
	}
	ops, err := src.OperationsByTag()
	if err != nil {
		return nil, err
	}

	files, err := renderSchemas(ctx, schemas, format, opts.Workers)
	if err != nil {
		return nil, err
	}
	if files[fileName("operations", format)], err = Encode(operationsDoc(ops), format); err != nil {
		return nil, fmt.Errorf("render operations: %w", err)
	}
	if files[fileName("tags", format)], err = Encode(tagsDoc(src, ops), format); err != nil {
		return nil, fmt.Errorf("render tags: %w", err)
	}

	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, p)
	}
	sort.Strings(rels)
	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}
	log.Info("planned catalog", "schemas", len(schemas), "tags", len(ops), "files", len(planned), "dry_run", opts.DryRun)

	if !opts.DryRun {
		if err := writeFiles(opts.OutDir, rels, files, opts.Force); err != nil {
			return nil, err
		}
		log.Info("wrote catalog", "dir", opts.OutDir, "files", len(planned))
	}
	return &Result{Format: format, Schemas: len(schemas), Planned: planned}, nil
}

// renderSchemas encodes each schema on a bounded worker pool.
func renderSchemas(ctx context.Context, schemas []catalog.NamedSchema, format Format, workers int) (map[string][]byte, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	rels := make([]string, len(schemas))
	seen := make(map[string]string, len(schemas))
	for i, s := range schemas {
		rel := path.Join("schemas", fileName(SafeFileName(s.Name), format))
		if prev, dup := seen[rel]; dup {
			return nil, fmt.Errorf("catalogemitter: schemas %q and %q both map to %s", prev, s.Name, rel)
		}
		seen[rel] = s.Name
		rels[i] = rel
	}

	rendered := make([][]byte, len(schemas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range schemas {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := Encode(schemas[i], format)
			if err != nil {
				return fmt.Errorf("render schema %s: %w", schemas[i].Name, err)
			}
			rendered[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(schemas)+2)
	for i, rel := range rels {
		files[rel] = rendered[i]
	}
	return files, nil
}

type tagEntry struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Operations  int    `yaml:"operations" json:"operations"`
}

func tagsDoc(src Source, ops map[string][]catalog.TaggedOperation) []tagEntry {
	descriptions := map[string]string{}
	for _, t := range src.Tags() {
		descriptions[strings.TrimSpace(t.Name)] = t.Description
	}
	names := src.AllTags()
	if _, ok := ops[catalog.DefaultTag]; ok && !slices.Contains(names, catalog.DefaultTag) {
		names = append(names, catalog.DefaultTag)
		sort.Strings(names)
	}
	out := make([]tagEntry, 0, len(names))
	for _, name := range names {
		out = append(out, tagEntry{Name: name, Description: descriptions[name], Operations: len(ops[name])})
	}
	return out
}

func operationsDoc(ops map[string][]catalog.TaggedOperation) *spec.OrderedMap[[]catalog.TaggedOperation] {
	tags := make([]string, 0, len(ops))
	for tag := range ops {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	out := spec.NewOrderedMap[[]catalog.TaggedOperation]()
	for _, tag := range tags {
		out.Set(tag, ops[tag])
	}
	return out
}

// Encode renders v as indented JSON or YAML, preserving ordered map key order.
func Encode(v any, format Format) ([]byte, error) {
	if format == YAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	compact, err := jsonAPI.Marshal(v)
	if err != nil {
		return nil, err
	}
	// Custom marshalers emit compact JSON, so indent the whole document once.
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func fileName(base string, format Format) string {
	return base + "." + string(format)
}

// SafeFileName maps a schema name to a single path segment.
func SafeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r < 0x20:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		out = "_" + out
	}
	return out
}

func writeFiles(outDir string, rels []string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if st, err := os.Stat(abs); err == nil && st.IsDir() && !force {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("%w: %q (use --force to overwrite)", ErrOutDirNotEmpty, abs)
		}
	}
	for _, rel := range rels {
		if err := writeAtomic(filepath.Join(abs, filepath.FromSlash(rel)), files[rel]); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
	}
	return nil
}

// writeAtomic writes through a temp file in the target directory and
// renames it into place.
func writeAtomic(p string, content []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}
