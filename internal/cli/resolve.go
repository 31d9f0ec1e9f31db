package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mark3labs/oascompose/internal/emitter/catalogemitter"
	"github.com/mark3labs/oascompose/internal/spec"
)

var resolveRunner = runResolve

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve every component schema and write the catalog",
		Long:  "Resolve every components.schemas entry into its composition-free form and write one file per schema plus the operations-by-tag and tag indexes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return resolveRunner(cmd.Context(), cfg, streams{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()})
		},
	}

	addDocumentFlags(cmd)
	addFilterFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "Output directory for the resolved catalog")
	cmd.Flags().StringP("format", "f", "json", "Catalog file format (json|yaml)")
	cmd.Flags().Int("workers", 0, "Schema render concurrency (defaults to GOMAXPROCS)")
	cmd.Flags().Bool("dry-run", false, "Print planned files without writing")
	cmd.Flags().Bool("force", false, "Write into a non-empty output directory")

	return cmd
}

func addDocumentFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "Path or http(s) URL of the OpenAPI/Swagger document")
	cmd.Flags().Bool("strict", false, "Run full OpenAPI validation before resolving")
}

// addFilterFlags registers the operation filters.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("include-tags", nil, "Only include operations with these tags")
	cmd.Flags().StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	cmd.Flags().StringSlice("methods", nil, "Only include these HTTP methods")
	cmd.Flags().StringSlice("paths", nil, "Only include paths matching these regular expressions")
}

func runResolve(ctx context.Context, cfg *Config, s streams) error {
	if err := cfg.validate("resolve"); err != nil {
		return err
	}
	if cfg.Out == "" {
		return newUsageError("resolve: --out is required")
	}
	format, err := catalogemitter.ParseFormat(cfg.Format)
	if err != nil {
		return newUsageError(fmt.Sprintf("resolve: %v", err))
	}

	log, closeLog, err := newLogger(cfg, s.Err)
	if err != nil {
		return err
	}
	defer closeLog()

	cat, err := openCatalog(ctx, "resolve", cfg, log)
	if err != nil {
		return err
	}

	res, err := catalogemitter.Emit(ctx, cat, catalogemitter.Options{
		OutDir:  cfg.Out,
		Format:  format,
		Workers: cfg.Workers,
		Force:   cfg.Force,
		DryRun:  cfg.DryRun,
		Logger:  log,
	})
	if err != nil {
		if spec.CodeOf(err) != "" {
			return specUsageError("resolve", err)
		}
		return wrapOutputError(err, cfg.Out)
	}

	if cfg.DryRun {
		printPlan(s.Out, cfg.Out, res)
		return nil
	}
	fmt.Fprintf(s.Out, "Resolved %d schemas into %s (%d files)\n", res.Schemas, cfg.Out, len(res.Planned))
	return nil
}

func printPlan(w io.Writer, outDir string, res *catalogemitter.Result) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, len(res.Planned))
	for _, p := range res.Planned {
		fmt.Fprintf(w, "- %s (%d bytes)\n", p.RelPath, p.Size)
	}
}
