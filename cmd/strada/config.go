package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	Long: `Config shows the settings a run would use after strada.toml, the
STRADA_* environment variables and the --trace* flags are applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if path != "" {
			fmt.Fprintf(out, "# loaded from %s\n", path)
		} else {
			fmt.Fprintln(out, "# built-in defaults")
		}
		return cfg.Encode(out)
	},
}
