package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/oascompose/internal/catalog"
	"github.com/mark3labs/oascompose/internal/logging"
	"github.com/mark3labs/oascompose/internal/spec"
)

// streams are the writers a runner prints to.
type streams struct {
	Out io.Writer
	Err io.Writer
}

func newLogger(cfg *Config, errw io.Writer) (*slog.Logger, func() error, error) {
	log, closeLog, err := logging.New(logging.Config{
		Verbose: cfg.Verbose,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		File:    cfg.LogFile,
		Console: errw,
	})
	if err != nil {
		return nil, nil, newUsageError(fmt.Sprintf("logging: %v", err))
	}
	return log, closeLog, nil
}

// openCatalog loads cfg.Input and builds a filtered catalog over it.
func openCatalog(ctx context.Context, command string, cfg *Config, log *slog.Logger) (*catalog.Catalog, error) {
	doc, err := spec.Load(ctx, cfg.Input, spec.WithStrictValidation(cfg.Strict))
	if err != nil {
		return nil, specUsageError(command, err)
	}
	log.Debug("loaded document", "input", cfg.Input, "openapi", doc.OpenAPI, "title", doc.Info.Title, "schemas", len(doc.SchemaNames()))

	cat, err := catalog.New(doc,
		catalog.WithIncludeTags(cfg.IncludeTags),
		catalog.WithExcludeTags(cfg.ExcludeTags),
		catalog.WithMethods(cfg.httpMethods()),
		catalog.WithPathPatterns(cfg.PathPatterns),
		catalog.WithLogger(log),
	)
	if err != nil {
		return nil, newUsageError(fmt.Sprintf("%s: %v", command, err))
	}
	return cat, nil
}
