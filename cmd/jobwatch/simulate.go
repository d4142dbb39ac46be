package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jpalmerr/jobwatch/config"
	"github.com/jpalmerr/jobwatch/internal/server"
	"github.com/jpalmerr/jobwatch/internal/simulator"
	"github.com/spf13/cobra"
)

// simulateCmd serves a simulated job for local testing.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Serve a simulated job",
	Long: `Serve a simulated long-running job on GET /status.

The job's duration is drawn uniformly between --min-delay and --max-delay,
and it ends as completed or error with equal probability. Until then it
reports pending with progress growing linearly to 100.

Settings come from the simulator section of a config file, overridden by
flags. The port also honours the PORT environment variable.

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  jobwatch simulate
  jobwatch simulate --port 6000 --min-delay 10s --max-delay 30s`,
	RunE: runSimulate,
}

func addSimulateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file")
	cmd.Flags().Int("port", 0, "HTTP port (default 5001, or $PORT)")
	cmd.Flags().Duration("min-delay", 0, "shortest job duration (default 60s)")
	cmd.Flags().Duration("max-delay", 0, "longest job duration (default 180s)")
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	logger, err := newLogger(levelName)
	if err != nil {
		return err
	}

	sc, err := loadSimulatorConfig(cmd)
	if err != nil {
		return err
	}

	job, err := simulator.NewRandomJob(sc.MinDelay.Duration(), sc.MaxDelay.Duration(), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create simulated job: %w", err)
	}

	logger.Info("simulated job created",
		"delay", job.Delay().Round(time.Millisecond).String(),
		"outcome", job.Outcome(),
	)

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(job, sc.Port, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	<-ctx.Done()
	<-srv.Done()
	logger.Info("shutdown complete")
	return nil
}

// loadSimulatorConfig merges defaults, the config file, $PORT and flags, in
// increasing order of precedence.
func loadSimulatorConfig(cmd *cobra.Command) (config.SimulatorConfig, error) {
	// an empty document yields the defaults
	base, err := config.Parse(nil)
	if err != nil {
		return config.SimulatorConfig{}, err
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		base, err = config.Load(configFile)
		if err != nil {
			return config.SimulatorConfig{}, fmt.Errorf("failed to load config: %w", err)
		}
	} else if env := os.Getenv("PORT"); env != "" {
		port, err := strconv.Atoi(env)
		if err != nil {
			return config.SimulatorConfig{}, fmt.Errorf("invalid PORT %q: %w", env, err)
		}
		base.Simulator.Port = port
	}

	sc := base.Simulator
	if cmd.Flags().Changed("port") {
		sc.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("min-delay") {
		d, _ := cmd.Flags().GetDuration("min-delay")
		sc.MinDelay = config.Duration(d)
	}
	if cmd.Flags().Changed("max-delay") {
		d, _ := cmd.Flags().GetDuration("max-delay")
		sc.MaxDelay = config.Duration(d)
	}

	if sc.Port < 0 || sc.Port > 65535 {
		return config.SimulatorConfig{}, fmt.Errorf("port must be between 0 and 65535, got %d", sc.Port)
	}
	return sc, nil
}
