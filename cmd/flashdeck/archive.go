package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"flashdeck/internal/app"
)

var exportCmd = &cobra.Command{
	Use:   "export NAME",
	Short: "Save a snapshot of your library to the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		return withApp(cmd, "Export", func(ctx context.Context, a *app.FlashdeckApp) error {
			object, snap, err := a.Export(ctx, args[0], encrypt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d deck(s), %d card(s) to %s\n", len(snap.Decks), snap.CardCount(), object)
			return nil
		})
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore NAME",
	Short: "Import a snapshot from the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Restore", func(ctx context.Context, a *app.FlashdeckApp) error {
			n, err := a.Restore(ctx, args[0], func() (string, error) {
				return readPassphrase(cmd, "Passphrase: ")
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d deck(s) from %s\n", n, args[0])
			return nil
		})
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List archived snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ListSnapshots", func(ctx context.Context, a *app.FlashdeckApp) error {
			names, err := a.ListSnapshots(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshots.")
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy a local library file into the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		return withApp(cmd, "Migrate", func(ctx context.Context, a *app.FlashdeckApp) error {
			n, err := a.MigrateFrom(ctx, from)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d deck(s) from %s as %s\n", n, from, a.Principal())
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().Bool("encrypt", false, "Encrypt the snapshot with the archive keys")
	migrateCmd.Flags().String("from", "", "Path of the local library file (decks.json)")
	migrateCmd.MarkFlagRequired("from")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(migrateCmd)
}
