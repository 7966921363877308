package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/internal/config"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// openStore opens the configured record store. The in-memory backend does
// not outlive the command, which is only useful for dry runs.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Backend == config.StoreMemory {
		printWarning("Using the in-memory store; records are discarded on exit")
	}
	s, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// importCommand creates the import command that loads a snapshot into the store.
func (c *CLI) importCommand() *cobra.Command {
	var owner, name string

	cmd := &cobra.Command{
		Use:   "import [snapshot.json]",
		Short: "Import a family snapshot into the record store",
		Long: `Import a family snapshot into the record store.

A new tree owned by --owner is created and every person, media reference and
relationship is copied with fresh identifiers. Relationships pointing at
people outside the snapshot are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], owner, name)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owning user id (required)")
	cmd.Flags().StringVar(&name, "name", "", "tree name (default: the snapshot's name)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func (c *CLI) runImport(ctx context.Context, input, owner, name string) error {
	snap, err := c.readSnapshot(input)
	if err != nil {
		return err
	}

	s, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	prog := newProgress(c.Logger)
	tree, stats, err := store.Import(ctx, s, owner, snap, name)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Imported %d people", stats.People))

	printSuccess("Imported %s", StyleHighlight.Render(tree.Name))
	printKeyValue("Tree", tree.ID)
	printKeyValue("People", fmt.Sprint(stats.People))
	printKeyValue("Relations", fmt.Sprint(stats.Relationships))
	if stats.Skipped > 0 {
		printWarning("Skipped %d relationships", stats.Skipped)
	}
	printNextStep("Export", fmt.Sprintf("%s export %s --owner %s", appName, tree.ID, owner))
	return nil
}

// exportCommand creates the export command that writes a stored tree as a snapshot.
func (c *CLI) exportCommand() *cobra.Command {
	var owner, output string

	cmd := &cobra.Command{
		Use:   "export [tree-id]",
		Short: "Export a stored tree as a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), cmd.OutOrStdout(), args[0], owner, output)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owning user id (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, stdout io.Writer, treeID, owner, output string) error {
	s, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.Snapshot(ctx, owner, treeID)
	if err != nil {
		return err
	}

	if output == "" || output == "-" {
		return family.WriteSnapshot(snap, stdout)
	}
	if err := family.WriteSnapshotFile(snap, output); err != nil {
		return err
	}
	printSuccess("Exported %d people", len(snap.People))
	printFile(output)
	return nil
}
