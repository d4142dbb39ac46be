// Package main is the entry point for the jobwatch CLI.
//
// jobwatch can be used as a library (SDK) or as a standalone binary with
// flags or a YAML configuration. This CLI provides the standalone binary
// approach, plus a simulated job server for trying it out locally.
//
// Usage:
//
//	jobwatch watch --url http://localhost:5001 # Watch a job until it finishes
//	jobwatch watch -c jobwatch.yaml            # Same, configured from a file
//	jobwatch simulate                          # Serve a simulated job
//	jobwatch validate -c jobwatch.yaml         # Validate configuration
//	jobwatch version                           # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Overridden at release time, e.g.
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "jobwatch",
	Short: "Watch a long-running job until it finishes",
	Long: `jobwatch polls a long-running job's status endpoint until the job
reports completed or error.

The wait between polls adapts to the job: it backs off exponentially while
the job is early, then shortens as progress approaches 100%, scaled by the
job's own expected duration.

Quick start:
  1. Run a simulated job:  jobwatch simulate
  2. In another terminal:  jobwatch watch --url http://localhost:5001

Example config:
  watch:
    url: http://localhost:5001
    timeout: 5s
    deadline: 10m
  simulator:
    port: 5001
    min_delay: 60s
    max_delay: 180s`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jobwatch %s (commit %s, built %s)\n", version, commit, date)
	},
}

// init assembles the full command tree.
func init() {
	addWatchFlags(watchCmd)
	addSimulateFlags(simulateCmd)
	addValidateFlags(validateCmd)

	rootCmd.AddCommand(watchCmd, simulateCmd, validateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
