package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var tagsRunner = runTags

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags with their operation counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return tagsRunner(cmd.Context(), cfg, streams{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()})
		},
	}

	addDocumentFlags(cmd)
	addFilterFlags(cmd)

	return cmd
}

// runTags prints every tag in sorted order. Counts reflect the active
// filters, so a tag excluded by them shows 0.
func runTags(ctx context.Context, cfg *Config, s streams) error {
	if err := cfg.validate("tags"); err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, s.Err)
	if err != nil {
		return err
	}
	defer closeLog()

	cat, err := openCatalog(ctx, "tags", cfg, log)
	if err != nil {
		return err
	}
	ops, err := cat.OperationsByTag()
	if err != nil {
		return specUsageError("tags", err)
	}

	tw := tabwriter.NewWriter(s.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tOPERATIONS")
	for _, tag := range cat.AllTags() {
		fmt.Fprintf(tw, "%s\t%d\n", tag, len(ops[tag]))
	}
	return tw.Flush()
}
