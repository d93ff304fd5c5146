package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storypack/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showStages bool

	cmd := &cobra.Command{
		Use:   "history [slug]",
		Short: "Show recent packaging runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Ledger.Enabled || strings.TrimSpace(cfg.Ledger.Path) == "" {
				return errors.New("run history is disabled; enable [ledger] in the configuration")
			}

			store, err := ledger.Open(cfg.Ledger.Path)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			slug := ""
			if len(args) > 0 {
				slug = strings.TrimSpace(args[0])
			}

			runs, err := store.RecentRuns(cmd.Context(), slug, limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No packaging runs recorded")
				return nil
			}
			fmt.Fprintln(out, runsTable(runs))

			if !showStages {
				return nil
			}

			printer := newStatusPrinter(out)
			for _, run := range runs {
				stages, err := store.StagesForRun(cmd.Context(), run.ID)
				if err != nil {
					return fmt.Errorf("list stages for run %s: %w", run.ID, err)
				}
				printer.section(fmt.Sprintf("%s %s", run.Slug, formatRunTime(run.StartedAt)))
				if run.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", run.Error)
				}
				if len(stages) == 0 {
					fmt.Fprintln(out, "No stages recorded")
					continue
				}
				fmt.Fprintln(out, stagesTable(stages))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&showStages, "stages", false, "Show per-stage detail for each run")
	return cmd
}
