package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fauxpas-eval/internal/db"
	"fauxpas-eval/internal/judge"
	"fauxpas-eval/internal/scoring"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a user's answers and print the final scores",
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

		j, err := judge.New(cfg.Judge, log)
		if err != nil {
			return err
		}
		repo := db.NewRepository(dbase, log)
		svc := scoring.NewService(repo, j, scoring.Options{
			Logger:               log,
			MaxConcurrentStories: cfg.MaxConcurrentStories,
			JudgeTimeout:         cfg.Judge.CallBudget(),
			Runs:                 repo,
		})
		final, scores, err := svc.CalculateScores(cmd.Context(), userID)
		if err != nil {
			return err
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			for _, s := range scores {
				fmt.Printf("story %-4d Q%d  %-13s answered=%t\n", s.StoryID, s.Order, s.Evaluation, s.Answered)
			}
		}
		return printJSON(final)
	},
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Aggregate stored evaluations without re-running the judge",
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

		repo := db.NewRepository(dbase, log)
		agg := scoring.NewAggregator(repo, scoring.Options{
			Logger:               log,
			MaxConcurrentStories: cfg.MaxConcurrentStories,
			Runs:                 repo,
		})
		final, err := agg.ComputeFinalScores(cmd.Context(), userID)
		if err != nil {
			return err
		}
		return printJSON(final)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	evaluateCmd.Flags().Int64("user", 0, "User ID")
	evaluateCmd.Flags().BoolP("verbose", "v", false, "Print every question decision")
	scoresCmd.Flags().Int64("user", 0, "User ID")
}
