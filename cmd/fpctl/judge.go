package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fauxpas-eval/internal/judge"
)

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Inspect the configured semantic judge",
}

var judgePingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the judge is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		j, err := judge.New(cfg.Judge, log)
		if err != nil {
			return err
		}
		p, ok := j.(judge.Pinger)
		if !ok {
			return fmt.Errorf("judge backend %q has no health probe", cfg.Judge.Backend)
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Judge.Timeout)
		defer cancel()
		start := time.Now()
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("judge ping: %w", err)
		}
		fmt.Printf("Judge %s is up (%s).\n", cfg.Judge.Backend, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	judgeCmd.AddCommand(judgePingCmd)
}
