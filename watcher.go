package jobwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jpalmerr/jobwatch/internal/poller"
)

const (
	defaultStatusPath     = "/status"
	defaultRequestTimeout = 10 * time.Second
)

var (
	// ErrTimeout is returned by [Watcher.Watch] when the deadline set with
	// [WithDeadline], or the caller's context deadline, passes first.
	ErrTimeout = poller.ErrTimeout

	// ErrMaxAttempts is returned by [Watcher.Watch] when the ceiling set with
	// [WithMaxAttempts] is reached first.
	ErrMaxAttempts = poller.ErrMaxAttempts
)

// Watcher polls one job-status endpoint until the job finishes.
//
// Watcher is created using [New] and holds no per-session state: each
// [Watcher.Watch] call is an independent session, and several may run
// concurrently.
type Watcher struct {
	url       string
	deadline  time.Duration
	client    *poller.Client
	intervals poller.Intervals
	loop      *poller.Loop
	logger    *slog.Logger
}

// New creates a [Watcher] for the job served at baseURL.
//
// The status URL is baseURL joined with the status path ("/status" unless
// changed with [WithStatusPath]). Defaults:
//   - Request timeout: 10 seconds
//   - Transition progress: 60
//   - No attempt ceiling and no deadline
//
// Returns an error if baseURL is not an absolute http(s) URL or any option
// is invalid.
func New(baseURL string, opts ...Option) (*Watcher, error) {
	cfg := &watchConfig{
		statusPath:         defaultStatusPath,
		timeout:            defaultRequestTimeout,
		transitionProgress: poller.DefaultTransitionProgress,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	statusURL, err := buildStatusURL(baseURL, cfg.statusPath)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	var doer poller.Doer
	if cfg.httpClient != nil {
		doer = cfg.httpClient
	}
	client := poller.NewClient(doer)

	source := poller.NewSource(client, poller.SourceConfig{
		URL:     statusURL,
		Headers: copyMap(cfg.headers),
		Timeout: cfg.timeout,
		Decoder: toPollerDecoder(cfg.decoder),
	}, logger)

	intervals := poller.NewIntervals(cfg.transitionProgress)

	loop := poller.NewLoop(source, intervals, poller.LoopConfig{
		MaxAttempts: cfg.maxAttempts,
		MinInterval: cfg.minInterval,
		OnAttempt:   attemptNotifier(cfg.attemptCallbacks, logger),
	}, logger)

	return &Watcher{
		url:       statusURL,
		deadline:  cfg.deadline,
		client:    client,
		intervals: intervals,
		loop:      loop,
		logger:    logger,
	}, nil
}

// Watch polls the job until it reports a terminal status and returns it.
//
// Watch blocks. A failed fetch (connection error, non-2xx response,
// undecodable body) counts as a terminal [StatusError], so without a
// deadline or attempt ceiling Watch returns only [StatusCompleted] or
// [StatusError] with a nil error. An error is returned only when the
// session is cut short: [ErrTimeout], [ErrMaxAttempts], or ctx.Err() on
// cancellation.
//
// If ctx is nil, context.Background() is used.
func (w *Watcher) Watch(ctx context.Context) (Status, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if w.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.deadline)
		defer cancel()
	}

	w.logger.Info("watching job", "url", w.url)

	status, err := w.loop.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("watch %s: %w", w.url, err)
	}
	return Status(status), nil
}

// NextInterval returns the jittered wait this Watcher would choose after
// the given attempt and report.
func (w *Watcher) NextInterval(attempt int, snap Snapshot) time.Duration {
	return w.intervals.Next(attempt, snap.Progress, snap.ExpectedTime)
}

// URL returns the full status URL being polled.
func (w *Watcher) URL() string {
	return w.url
}

// Close releases idle connections held by the Watcher's HTTP client.
// Safe to call multiple times; the Watcher remains usable.
func (w *Watcher) Close() {
	w.client.Close()
}

// NextInterval returns the jittered wait before the next poll using the
// default transition progress of 60.
//
// Early regime (progress < 60): expectedTime/30 doubled per attempt, capped
// at expectedTime/3.5. Late regime: decays from expectedTime/3.5 towards
// expectedTime/30 as progress approaches 100. Every result carries ±10%
// jitter. A non-positive expectedTime yields zero.
func NextInterval(attempt, progress int, expectedTime float64) time.Duration {
	return poller.NewIntervals(poller.DefaultTransitionProgress).Next(attempt, progress, expectedTime)
}

// buildStatusURL validates baseURL and joins it with path.
func buildStatusURL(baseURL, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("base URL is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("base URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("base URL must include a host")
	}

	if path == "" {
		return parsed.String(), nil
	}
	return parsed.JoinPath(path).String(), nil
}

// attemptNotifier fans an attempt out to every callback, isolating panics
// per callback so one misbehaving callback does not starve the rest.
func attemptNotifier(callbacks []func(Attempt), logger *slog.Logger) func(poller.Attempt) {
	if len(callbacks) == 0 {
		return nil
	}
	return func(a poller.Attempt) {
		public := fromPollerAttempt(a)
		for _, cb := range callbacks {
			invokeCallbackSafe(cb, public, logger)
		}
	}
}

// invokeCallbackSafe calls an attempt callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Attempt), a Attempt, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("attempt callback panicked",
				"panic", r,
				"session_id", a.SessionID,
				"attempt", a.Index+1,
			)
		}
	}()
	cb(a)
}

// copyMap returns a shallow copy of m, or nil if m is empty.
func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
