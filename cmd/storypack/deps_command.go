package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storypack/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check working directories and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printer := newStatusPrinter(out)

			failed := 0
			for _, result := range preflight.RunAll(cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed++
				}
				printer.line(kind, result.Name, result.Detail)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, systemDepsTable(preflight.CheckSystemDeps(cfg)))

			if failed > 0 {
				return fmt.Errorf("%d preflight checks failed", failed)
			}
			return nil
		},
	}
}
