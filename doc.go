// Package jobwatch polls a long-running job's status endpoint until the job
// completes or fails, pacing requests to the job's own progress.
//
// The endpoint is expected to answer GET requests with
//
//	{"status": "pending", "progress": 42, "expectedTime": 120}
//
// where status is "pending", "completed" or "error", progress is a
// percentage and expectedTime is the job's expected total duration in
// seconds.
//
// # Quick Start
//
//	w, _ := jobwatch.New("http://localhost:5001")
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	status, err := w.Watch(ctx) // blocks until completed or error
//
// # Interval Selection
//
// The wait between polls is derived from the last report:
//
//   - While progress is below the transition point (default 60), the wait
//     starts at expectedTime/30 and doubles per attempt, capped at
//     expectedTime/3.5.
//   - From the transition point on, the wait decays exponentially from
//     expectedTime/3.5 towards expectedTime/30 as progress approaches 100.
//   - Every wait carries ±10% uniform jitter.
//
// A report with expectedTime 0 yields an immediate retry unless a floor is
// set with [WithMinInterval].
//
// # Failures
//
// A fetch that fails for any reason (connection error, non-2xx response,
// undecodable body) is logged and treated as the report
// {error, 0, 0}, which ends the session with [StatusError]. A remote report
// of exactly {error, 0, 0} looks the same to callers; only the
// "error fetching status" log line tells the two apart.
//
// Sessions have no limit by default. [WithDeadline] and [WithMaxAttempts]
// add one, surfaced as [ErrTimeout] and [ErrMaxAttempts].
//
// # Architecture
//
//   - internal/poller: HTTP client, status source, interval selection, poll loop
//   - internal/simulator: deterministic simulated job for local testing
//   - internal/server: HTTP front end of the simulator
//   - config: YAML configuration for the jobwatch CLI
package jobwatch
