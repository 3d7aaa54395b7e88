package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fauxpas-eval/internal/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dbase, _, err := openDB(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer dbase.Close()
		if err := migrations.Up(dbase.DB, cfg.DBDriver); err != nil {
			return err
		}
		fmt.Println("Migrations applied.")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ok, _ := cmd.Flags().GetBool("yes"); !ok {
			return fmt.Errorf("refusing to drop all tables without --yes")
		}
		cfg, dbase, _, err := openDB(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer dbase.Close()
		if err := migrations.Down(dbase.DB, cfg.DBDriver); err != nil {
			return err
		}
		fmt.Println("Migrations rolled back.")
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().Bool("yes", false, "Confirm dropping all tables")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
