package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"fauxpas-eval/internal/config"
	"fauxpas-eval/internal/db"
)

var rootCmd = &cobra.Command{
	Use:           "fpctl",
	Short:         "Faux Pas evaluation admin tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("driver", "", "Database driver, postgres or sqlite (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().String("dsn", "", "Database DSN (overrides DATABASE_URL)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(judgeCmd)
}

// loadConfig reads the environment and applies the persistent flags.
// Validation is left to commands that need a database.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Parse()
	if err != nil {
		return config.Config{}, nil, err
	}
	if v, _ := cmd.Flags().GetString("driver"); v != "" {
		cfg.DBDriver = v
	}
	if v, _ := cmd.Flags().GetString("dsn"); v != "" {
		cfg.DatabaseURL = v
	}
	return cfg, cfg.Logger(), nil
}

func openDB(ctx context.Context, cmd *cobra.Command) (config.Config, *sqlx.DB, *slog.Logger, error) {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	dbase, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, dbase, log, nil
}
