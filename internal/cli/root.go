package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the oascompose CLI.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "oascompose",
		Short:         "Resolve OpenAPI schema composition into flat schemas",
		Long:          "oascompose loads an OpenAPI 3.x (or Swagger 2.0) document, resolves $ref chains and allOf/oneOf/anyOf composition, and writes or prints the composition-free result.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Unknown flags become usage errors that carry the command's help text.
	cmd.SetFlagErrorFunc(flagUsageError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().String("env-file", ".env", "Dotenv file with "+EnvPrefix+"* variables")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")
	cmd.PersistentFlags().String("log-level", "", "Console log level (debug|info|warn|error); overrides --verbose")
	cmd.PersistentFlags().String("log-format", "text", "Console log format (text|json)")
	cmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file")

	for _, sub := range []*cobra.Command{newResolveCmd(), newInspectCmd(), newTagsCmd(), newInitCmd()} {
		sub.SetFlagErrorFunc(flagUsageError)
		cmd.AddCommand(sub)
	}
	return cmd
}

func flagUsageError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}
