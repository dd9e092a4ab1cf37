package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"scribe/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or reset a collection's resume ledger",
	}

	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	ledgerCmd.AddCommand(newLedgerResetCommand(ctx))

	return ledgerCmd
}

// collectionDir accepts either a collection folder name under the output
// root or an explicit directory path.
func (c *commandContext) collectionDir(arg string) (string, error) {
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return arg, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return filepath.Join(cfg.Paths.OutputDir, arg), nil
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show COLLECTION",
		Short: "List the item IDs recorded for a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := ctx.collectionDir(args[0])
			if err != nil {
				return err
			}
			led, err := ledger.ForCollection(dir)
			if err != nil {
				return fmt.Errorf("read ledger: %w", err)
			}
			out := cmd.OutOrStdout()
			entries := led.Entries()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No entries in %s\n", led.Path())
				return nil
			}
			for _, id := range entries {
				fmt.Fprintln(out, id)
			}
			fmt.Fprintf(out, "%d entries in %s\n", len(entries), led.Path())
			return nil
		},
	}
}

func newLedgerResetCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset COLLECTION",
		Short: "Clear a collection's resume ledger so the next run refetches everything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to clear the ledger without --yes")
			}
			dir, err := ctx.collectionDir(args[0])
			if err != nil {
				return err
			}
			led, err := ledger.ForCollection(dir)
			if err != nil {
				return fmt.Errorf("read ledger: %w", err)
			}
			count := led.Len()
			if err := led.Reset(); err != nil {
				return fmt.Errorf("reset ledger: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries from %s\n", count, led.Path())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm the reset")
	return cmd
}
