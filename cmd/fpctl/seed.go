package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fauxpas-eval/internal/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import stories and questions from a question-bank JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()

		seeds, err := db.DecodeSeeds(f)
		if err != nil {
			return err
		}

		_, dbase, log, err := openDB(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer dbase.Close()

		if err := db.NewRepository(dbase, log).ImportStories(cmd.Context(), seeds); err != nil {
			return err
		}
		fmt.Printf("Imported %d stories from %s.\n", len(seeds), path)
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "data/stories.json", "Question-bank JSON file")
}
