package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// viewCommand creates the view command for browsing a tree in the terminal.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		noCache bool
		lf      layoutFlags
		scale   float64
	)

	cmd := &cobra.Command{
		Use:   "view [snapshot.json]",
		Short: "Browse a family tree interactively in the terminal",
		Long: `Browse a family tree interactively in the terminal.

Drag with the mouse or use the arrow keys to pan, scroll or press +/- to
zoom, and press 0 to return to the initial view. Clicking a person opens
their details; esc closes them and q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.baseOptions()
			if err != nil {
				return err
			}
			lf.apply(cmd, &opts.Layout)
			if cmd.Flags().Changed("scale") {
				opts.Viewport.DefaultScale = scale
			}
			return c.runView(cmd.Context(), args[0], opts, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&scale, "scale", 0, "initial zoom level")
	lf.register(cmd)

	return cmd
}

// runView lays out the snapshot and hands it to the tree viewer.
func (c *CLI) runView(ctx context.Context, input string, opts pipeline.Options, noCache bool) error {
	snap, err := c.readSnapshot(input)
	if err != nil {
		return err
	}
	if snap.Empty() {
		printWarning("%s has no people, nothing to show", input)
		return nil
	}
	opts.SetRenderDefaults()
	if err := opts.Viewport.Validate(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	_, root := pipeline.Build(snap.People)
	hash, err := cache.HashJSON(snap.People)
	if err != nil {
		return fmt.Errorf("hash snapshot: %w", err)
	}
	l, err := runner.Layout(ctx, hash, root, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	title := snap.Name
	if title == "" {
		title = input
	}
	m := NewTreeModel(title, l, snap.People, opts.Viewport)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	if fm, ok := finalModel.(TreeModel); ok && fm.Selected != "" {
		if n, ok := l.Lookup(fm.Selected); ok {
			printInfo("Last selected: %s", StyleHighlight.Render(n.FirstName+" "+n.LastName))
			printDetail("%s", n.ID)
		}
	}
	return nil
}
