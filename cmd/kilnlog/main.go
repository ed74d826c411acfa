package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kilnlog/kilnlog/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "kilnlog",
	Short:   "Pottery catalog server with owner-scoped items and photo storage",
	Long: `Kilnlog is a catalog server for pottery and other craft work. Items
live in a document store, photo bytes live in blob storage, and the
service keeps the two consistent across partial failures.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			files = []string{configFile}
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: KILNLOG_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: kilnlog.db, env: KILNLOG_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-path", "", "blob storage directory path (default: ./data, env: KILNLOG_STORAGE_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
