package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"fauxpas-eval/internal/db"
	"fauxpas-eval/internal/storage"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a user's latest score report",
	Long: "Print a user's latest score report. With --archived the copy in object " +
		"storage is fetched instead of the database row.",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetInt64("user")
		if userID <= 0 {
			return fmt.Errorf("--user is required")
		}
		cfg, dbase, log, err := openDB(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer dbase.Close()

		rep, err := db.NewRepository(dbase, log).LatestReport(cmd.Context(), userID)
		if err != nil {
			return err
		}
		fmt.Printf("report %s  created %s  partial=%t\n", rep.ID, rep.CreatedAt.Local().Format("2006-01-02 15:04:05"), rep.Partial)

		if archived, _ := cmd.Flags().GetBool("archived"); !archived {
			return printJSON(json.RawMessage(rep.Scores))
		}
		if rep.ObjectRef == "" {
			return fmt.Errorf("report %s was not archived", rep.ID)
		}
		if !cfg.Storage.Enabled() {
			return fmt.Errorf("MINIO_ENDPOINT is not set")
		}
		s3c, err := storage.New(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}
		var scores json.RawMessage
		if err := s3c.GetJSON(cmd.Context(), rep.ObjectRef, &scores); err != nil {
			return err
		}
		return printJSON(scores)
	},
}

func init() {
	reportCmd.Flags().Int64("user", 0, "User ID")
	reportCmd.Flags().Bool("archived", false, "Read the archived copy from object storage")
}
