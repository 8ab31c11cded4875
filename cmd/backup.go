/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lifelog/apiserver/config"
	"github.com/lifelog/apiserver/internal/backup"
	"github.com/lifelog/apiserver/internal/logging"
	"github.com/lifelog/apiserver/internal/server"
)

// backupCmd represents the backup command.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage snapshots of the data directory",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Upload one snapshot to the configured object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := snapshotService(cmd)
		if err != nil {
			return err
		}

		key, err := svc.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("snapshot stored under %s\n", key)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <key>",
	Short: "Restore a snapshot into the data directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := snapshotService(cmd)
		if err != nil {
			return err
		}

		if err := svc.Restore(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("snapshot %s restored\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupRunCmd)
	backupCmd.AddCommand(backupRestoreCmd)
}

func snapshotService(cmd *cobra.Command) (*backup.Service, error) {
	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	store, err := server.NewObjectStorage(cmd.Context(), cfg.Backup)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("BACKUP_BACKEND is not configured")
	}
	return backup.NewService(store, cfg.DataDir, logger), nil
}
