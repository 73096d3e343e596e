package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strada/internal/config"
)

// loadConfig reads --config (or the nearest strada.toml), applies the
// environment and then any trace flags given on the command line. The
// returned path is empty when defaults were used.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, "", fmt.Errorf("failed to get config flag: %w", err)
	}

	var cfg config.Config
	if path != "" {
		if cfg, err = config.LoadFile(path); err != nil {
			return config.Config{}, path, err
		}
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return config.Config{}, path, err
		}
	} else if cfg, path, err = config.Load("."); err != nil {
		return config.Config{}, path, err
	}

	if err := applyTraceFlags(cmd, &cfg); err != nil {
		return config.Config{}, path, err
	}
	return cfg, path, nil
}

// applyTraceFlags lets explicitly set --trace* flags win over the file.
func applyTraceFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Root().PersistentFlags()
	var err error
	if flags.Changed("trace") {
		if cfg.Trace.Output, err = flags.GetString("trace"); err != nil {
			return fmt.Errorf("failed to get trace flag: %w", err)
		}
		// Naming an output without a level means "trace something".
		if !flags.Changed("trace-level") && cfg.Trace.Level == "off" {
			cfg.Trace.Level = "object"
		}
	}
	if flags.Changed("trace-level") {
		if cfg.Trace.Level, err = flags.GetString("trace-level"); err != nil {
			return fmt.Errorf("failed to get trace-level flag: %w", err)
		}
	}
	if flags.Changed("trace-mode") {
		if cfg.Trace.Mode, err = flags.GetString("trace-mode"); err != nil {
			return fmt.Errorf("failed to get trace-mode flag: %w", err)
		}
	}
	if flags.Changed("trace-format") {
		if cfg.Trace.Format, err = flags.GetString("trace-format"); err != nil {
			return fmt.Errorf("failed to get trace-format flag: %w", err)
		}
	}
	if flags.Changed("trace-ring-size") {
		if cfg.Trace.RingSize, err = flags.GetInt("trace-ring-size"); err != nil {
			return fmt.Errorf("failed to get trace-ring-size flag: %w", err)
		}
	}
	if flags.Changed("trace-heartbeat") {
		if cfg.Trace.Heartbeat.Duration, err = flags.GetDuration("trace-heartbeat"); err != nil {
			return fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
		}
	}
	return nil
}
