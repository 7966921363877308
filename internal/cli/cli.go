package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/internal/config"
	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "kintree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag; empty means the default location.
	ConfigPath string

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config loads the configuration once per process.
func (c *CLI) Config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	config.LoadEnv(c.Logger)
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The cache comes from the
// configuration unless noCache is set.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	return cfg.OpenCache(ctx)
}

// =============================================================================
// Options Helpers
// =============================================================================

// baseOptions returns pipeline options seeded from the configured layout
// and viewport settings. Commands override them with flags the user set.
func (c *CLI) baseOptions() (pipeline.Options, error) {
	cfg, err := c.Config()
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		Layout:   cfg.Layout,
		Viewport: cfg.Viewport,
		Logger:   c.Logger,
	}
	opts.SetLayoutDefaults()
	return opts, nil
}

// layoutFlags binds the layout spacing flags shared by several commands.
type layoutFlags struct {
	siblingGutter float64
	levelGutter   float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.siblingGutter, "sibling-gutter", layout.DefaultSiblingGutter, "horizontal distance between sibling centres")
	cmd.Flags().Float64Var(&f.levelGutter, "level-gutter", layout.DefaultLevelGutter, "vertical distance between generations")
}

// apply overrides configured values with flags that were set explicitly.
func (f *layoutFlags) apply(cmd *cobra.Command, o *layout.Options) {
	if cmd.Flags().Changed("sibling-gutter") {
		o.SiblingGutter = f.siblingGutter
	}
	if cmd.Flags().Changed("level-gutter") {
		o.LevelGutter = f.levelGutter
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if f := pipeline.ParseFormats(s); len(f) > 0 {
		return f
	}
	return []string{pipeline.FormatSVG}
}

// readSnapshot loads a snapshot file and logs its size.
func (c *CLI) readSnapshot(path string) (*family.Snapshot, error) {
	snap, err := family.ReadSnapshotFile(path)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	c.Logger.Debug("loaded snapshot", "path", path, "people", len(snap.People), "edges", snap.EdgeCount())
	return snap, nil
}
