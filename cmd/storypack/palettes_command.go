package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPalettesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "palettes",
		Short:       "List builtin cover palettes",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, paletteTable())
			fmt.Fprintln(out, "Custom palette: pass --palette a JSON file binding the six role keys above to hex colors.")
			return nil
		},
	}
}
