package main

import (
	"fmt"

	"github.com/jpalmerr/jobwatch/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without watching or serving anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a jobwatch configuration file without contacting any job.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  jobwatch validate -c jobwatch.yaml`,
	RunE: runValidate,
}

func addValidateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// catch option errors the file format cannot express
	if cfg.Watch.URL != "" {
		if _, err := config.BuildWatcher(cfg); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	watchURL := cfg.Watch.URL
	if watchURL == "" {
		watchURL = "(not set)"
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Watch URL:       %s\n", watchURL)
	fmt.Printf("  Deadline:        %s\n", describeLimit(cfg.Watch.Deadline.Duration().String(), cfg.Watch.Deadline == 0))
	fmt.Printf("  Max attempts:    %s\n", describeLimit(fmt.Sprint(cfg.Watch.MaxAttempts), cfg.Watch.MaxAttempts == 0))
	fmt.Printf("  Simulator port:  %d\n", cfg.Simulator.Port)
	fmt.Printf("  Simulator delay: %s - %s\n", cfg.Simulator.MinDelay.Duration(), cfg.Simulator.MaxDelay.Duration())

	return nil
}

func describeLimit(value string, unlimited bool) string {
	if unlimited {
		return "none"
	}
	return value
}
