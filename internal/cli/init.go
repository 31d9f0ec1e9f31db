package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigFile = "oascompose.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample oascompose configuration file",
		Long:  "Scaffold a commented oascompose configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{OutputPath: out, Force: force}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringP("out", "o", defaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(_ context.Context, cfg *InitConfig, w io.Writer) error {
	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigFile
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	tmp, err := os.CreateTemp(dir, ".oascompose-*.tmp")
	if err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	_, werr := tmp.WriteString(strings.TrimSpace(sampleConfigYAML) + "\n")
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmp.Name())
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v", firstErr(werr, cerr)))
	}
	if err := os.Rename(tmp.Name(), absPath); err != nil {
		_ = os.Remove(tmp.Name())
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(w, "Wrote sample config to %s\n", absPath)
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// sampleConfigYAML documents every key loadConfig accepts.
const sampleConfigYAML = `# oascompose configuration (YAML or JSON)
# All fields are optional. Environment variables (OASCOMPOSE_<KEY>, also read
# from .env) override this file; command-line flags override both.

# Path or http(s) URL of the OpenAPI 3.x or Swagger 2.0 document.
# input: ./openapi.yaml

# Output directory for "oascompose resolve".
# out: ./catalog

# Catalog file format (json|yaml). Defaults to json.
# format: json

# Only include operations with these tags (comma-separated or list).
# includeTags: [public, read]

# Exclude operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Only include these HTTP methods.
# methods: [get, post]

# Only include paths matching these regular expressions.
# pathPatterns: ["^/pets"]

# Schema render concurrency. 0 uses GOMAXPROCS.
# workers: 0

# Run full OpenAPI validation before resolving.
# strict: false

# Preview planned outputs without writing files.
# dryRun: false

# Overwrite a non-empty output directory.
# force: false

# Logging: verbose enables debug output and logLevel (debug|info|warn|error)
# overrides it; logFormat is text|json; logFile also receives JSON records.
# verbose: false
# logLevel: info
# logFormat: text
# logFile: ./oascompose.log
`
