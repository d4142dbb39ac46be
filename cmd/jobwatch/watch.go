package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/jobwatch"
	"github.com/jpalmerr/jobwatch/config"
	"github.com/spf13/cobra"
)

// errJobFailed is returned when the watched job reports the error status,
// so the process exits non-zero.
var errJobFailed = errors.New("job finished with status error")

// newLogger creates a JSON logger for CLI use.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}

// watchCmd polls a job until it finishes.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a job until it completes or fails",
	Long: `Watch a job's status endpoint until it reports completed or error.

The job is taken from --url, or from the watch section of a config file.
--url overrides the configured URL. Each attempt is printed to stdout; logs
go to stderr as JSON.

The command exits 0 when the job completes and 1 when it reports error,
times out, or is interrupted (Ctrl+C or SIGTERM).

Example:
  jobwatch watch --url http://localhost:5001
  jobwatch watch -c jobwatch.yaml --deadline 30m`,
	RunE: runWatch,
}

func addWatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file")
	cmd.Flags().String("url", "", "job base URL (overrides config)")
	cmd.Flags().Duration("deadline", 0, "give up after this long (0 means no limit)")
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")
}

func runWatch(cmd *cobra.Command, args []string) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	logger, err := newLogger(levelName)
	if err != nil {
		return err
	}

	cfg, err := loadWatchConfig(cmd)
	if err != nil {
		return err
	}

	w, err := config.BuildWatcher(cfg,
		jobwatch.WithLogger(logger),
		jobwatch.WithAttemptCallback(printAttempt),
	)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	status, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	fmt.Printf("job finished: %s\n", status)
	if status == jobwatch.StatusError {
		return errJobFailed
	}
	return nil
}

// loadWatchConfig merges the config file, if any, with command-line flags.
func loadWatchConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if u, _ := cmd.Flags().GetString("url"); u != "" {
		cfg.Watch.URL = u
	}
	if cmd.Flags().Changed("deadline") {
		d, _ := cmd.Flags().GetDuration("deadline")
		if d < 0 {
			return nil, fmt.Errorf("deadline cannot be negative, got %s", d)
		}
		cfg.Watch.Deadline = config.Duration(d)
	}

	if cfg.Watch.URL == "" {
		return nil, errors.New("a job URL is required: use --url or set watch.url in the config file")
	}
	return cfg, nil
}

// printAttempt writes one progress line per attempt to stdout.
func printAttempt(a jobwatch.Attempt) {
	line := fmt.Sprintf("attempt %d: %s %d%%", a.Index+1, a.Snapshot.Status, a.Snapshot.Progress)
	if a.Wait > 0 {
		line += fmt.Sprintf(" (next check in %s)", a.Wait.Round(100*time.Millisecond))
	}
	fmt.Println(line)
}
