package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"strada/internal/scenario"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in scenarios",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		width := 0
		for _, name := range scenario.Names() {
			width = max(width, len(name))
		}
		for _, s := range scenario.All() {
			fmt.Fprintf(out, "%-*s  %s\n", width, s.Name, s.Summary)
		}
		return nil
	},
}
