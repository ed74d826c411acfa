package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilnlog/kilnlog/config"
	"github.com/kilnlog/kilnlog/database"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database schema and storage directory",
	Long: `Create the items collection in the configured database and the blob
storage directory. Connect runs migrations and validates the schema, so
this is also a quick way to verify a deployment's configuration.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	_, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()

	slog.Info("database ready", "type", cfg.Database.Type, "collection", cfg.Database.Collection)

	if err := os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	slog.Info("storage ready", "path", cfg.Storage.Path)
	slog.Info("initialization complete")
	return nil
}
