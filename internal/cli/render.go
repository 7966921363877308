package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/pipeline"
)

// renderFlags holds the command-line flags for the render command that are
// not bound directly to pipeline.Options.
type renderFlags struct {
	formats string
	output  string
	noCache bool
	layout  layoutFlags
}

// renderCommand creates the render command for generating visualizations.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags renderFlags
		opts  pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render [snapshot.json]",
		Short: "Render a family snapshot to SVG, PNG, PDF, JSON or DOT",
		Long: `Render a family snapshot.

The tree view (-t tree, default) draws the descendant tree of the root
person; json writes its layout. The node-link view (-t nodelink) draws every
relationship, spouses included, with Graphviz; dot writes its source.

With --width and --height the tree view is rendered as a fixed viewport,
framed the way an interactive viewer opens it.

PNG and PDF output needs rsvg-convert on the PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := c.baseOptions()
			if err != nil {
				return err
			}
			flags.layout.apply(cmd, &base.Layout)
			opts.Layout = base.Layout
			opts.Viewport = base.Viewport
			opts.Logger = c.Logger
			opts.Formats = parseFormats(flags.formats)
			if err := opts.ValidateForRender(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, flags)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")

	// Render flags
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().StringVarP(&opts.View, "type", "t", pipeline.DefaultView, "view: tree (default), nodelink")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "fixed viewport width (tree view)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "fixed viewport height (tree view)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show dates and places (nodelink)")
	cmd.Flags().BoolVar(&opts.Interactive, "interactive", false, "embed pan/zoom script in SVG output")
	cmd.Flags().StringVar(&opts.Title, "title", "", "document title")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "PNG scale factor")
	flags.layout.register(cmd)

	return cmd
}

// runRender loads the snapshot, runs the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, flags renderFlags) error {
	snap, err := c.readSnapshot(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s view...", opts.View))
	spinner.Start()

	result, err := runner.Execute(ctx, snap, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if result.Empty {
		printWarning("%s has no people, nothing to render", input)
		return nil
	}

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, input, flags.output)
	if err != nil {
		return err
	}

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printSummary(treeSummary{
		placed:  result.Stats.Placed,
		links:   result.Stats.Edges,
		dropped: len(result.Dropped),
		cached:  result.CacheInfo.RenderHit,
	})
	return nil
}

// writeArtifacts writes each artifact next to the input or under output and
// returns the written paths in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	base := basePath(output, input)
	var paths []string
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		path := base + "." + f
		if len(formats) == 1 && output != "" {
			path = output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no output produced for formats %s", strings.Join(sortedKeys(artifacts), ","))
	}
	return paths, nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. A known format
// extension on output is stripped as well.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
