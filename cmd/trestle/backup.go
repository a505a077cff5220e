// Backup commands for the trestle CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/trestle/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up and restore the workspace",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create <zip>",
	Short: "Write the database and attachments to a zip archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := resolveDataDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "backup create:", err)
			os.Exit(exitSysError)
		}

		if err := backup.Snapshot(dataDir, args[0]); err != nil {
			fail("backup create", err)
		}

		fmt.Println("Backup written to", args[0])
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <zip>",
	Short: "Replace the database and attachments with an archive's contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := resolveDataDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "backup restore:", err)
			os.Exit(exitSysError)
		}

		if err := backup.Restore(dataDir, args[0]); err != nil {
			fail("backup restore", err)
		}

		fmt.Println("Restored from", args[0])
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupRestoreCmd)
}
