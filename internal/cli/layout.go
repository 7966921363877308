package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// layoutCommand creates the layout command for computing tree layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		lf      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [snapshot.json]",
		Short: "Compute the tree layout of a family snapshot",
		Long: `Compute the tree layout of a family snapshot.

The layout command reads a snapshot (a tree object with a "people" array, or
a bare array of people), picks the root, grows the descendant tree and
positions every person. The result is printed as JSON (same format as
'render -f json'); use -o to write it to a file instead.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.baseOptions()
			if err != nil {
				return err
			}
			lf.apply(cmd, &opts.Layout)
			return c.runLayout(cmd.Context(), cmd.OutOrStdout(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	lf.register(cmd)

	return cmd
}

// runLayout loads the snapshot, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, stdout io.Writer, input string, opts pipeline.Options, output string, noCache bool) error {
	snap, err := c.readSnapshot(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, root := pipeline.Build(snap.People)
	hash, err := cache.HashJSON(snap.People)
	if err != nil {
		return fmt.Errorf("hash snapshot: %w", err)
	}

	l, cacheHit, err := runner.LayoutWithCacheInfo(ctx, hash, root, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	data, err := layout.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	if output == "" || output == "-" {
		_, err := stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printSummary(treeSummary{placed: l.Len(), links: len(l.Links), dropped: len(g.Dropped()), cached: cacheHit})
	printNextStep("Render", appName+" render "+input)

	return nil
}
