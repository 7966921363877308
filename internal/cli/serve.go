package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/internal/config"
	"github.com/matzehuels/kintree/internal/server"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve trees over HTTP",
		Long: `Serve trees over HTTP.

The server exposes the record API (trees, people, relationships, media) and
the layout, render and activate endpoints. Callers identify themselves with
the X-User-ID header. Store and cache backends come from the configuration
file and KINTREE_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	c.SetLogLevel(min(c.Logger.GetLevel(), cfg.Level()))

	st, err := cfg.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ch, err := cfg.OpenCache(ctx)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer ch.Close()

	srv, err := server.New(server.Options{
		Store:           st,
		Cache:           ch,
		Logger:          c.Logger,
		Layout:          cfg.Layout,
		Viewport:        cfg.Viewport,
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout.Duration,
		WriteTimeout:    cfg.Server.WriteTimeout.Duration,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration,
	})
	if err != nil {
		return err
	}

	c.Logger.Info("starting server",
		"store", cfg.Store.Backend,
		"cache", cfg.Cache.Backend)
	return srv.ListenAndServe(ctx)
}
