package jobwatch

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// watchConfig holds mutable state during Watcher construction.
type watchConfig struct {
	statusPath         string
	timeout            time.Duration
	headers            map[string]string
	transitionProgress int
	maxAttempts        int
	deadline           time.Duration
	minInterval        time.Duration
	logger             *slog.Logger
	decoder            Decoder
	httpClient         *http.Client
	attemptCallbacks   []func(Attempt)
}

// Option is a function that configures a [Watcher] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*watchConfig) error

// WithStatusPath sets the path appended to the base URL.
//
// Defaults to "/status". An empty path polls the base URL itself.
//
// Example:
//
//	w, err := jobwatch.New("https://jobs.example.com/v1/jobs/42",
//	    jobwatch.WithStatusPath("state"),
//	)
func WithStatusPath(path string) Option {
	return func(cfg *watchConfig) error {
		cfg.statusPath = path
		return nil
	}
}

// WithTimeout sets the timeout of a single status request.
//
// Defaults to 10 seconds. Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *watchConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithHeaders adds custom HTTP headers sent with every status request.
//
// Headers are specified as key-value pairs:
//
//	jobwatch.WithHeaders("Authorization", "Bearer token", "X-Request-Source", "jobwatch")
//
// Returns an error if an odd number of arguments is provided.
// Can be called multiple times; later values for the same key win.
func WithHeaders(kv ...string) Option {
	return func(cfg *watchConfig) error {
		if len(kv)%2 != 0 {
			return fmt.Errorf("headers require key-value pairs, got %d arguments", len(kv))
		}
		if cfg.headers == nil {
			cfg.headers = make(map[string]string, len(kv)/2)
		}
		for i := 0; i < len(kv); i += 2 {
			if kv[i] == "" {
				return errors.New("header name cannot be empty")
			}
			cfg.headers[kv[i]] = kv[i+1]
		}
		return nil
	}
}

// WithTransitionProgress sets the progress percentage at which waits switch
// from exponential backoff to progress-aware decay.
//
// Defaults to 60. Returns an error unless 0 <= p < 100.
func WithTransitionProgress(p int) Option {
	return func(cfg *watchConfig) error {
		if p < 0 || p >= 100 {
			return fmt.Errorf("transition progress must be between 0 and 99, got %d", p)
		}
		cfg.transitionProgress = p
		return nil
	}
}

// WithMaxAttempts stops a session with [ErrMaxAttempts] after n attempts
// without a terminal status.
//
// Zero, the default, polls without limit. Returns an error if n is negative.
func WithMaxAttempts(n int) Option {
	return func(cfg *watchConfig) error {
		if n < 0 {
			return errors.New("max attempts cannot be negative")
		}
		cfg.maxAttempts = n
		return nil
	}
}

// WithDeadline bounds the total duration of a session. When it passes,
// [Watcher.Watch] returns an error wrapping [ErrTimeout].
//
// Zero, the default, imposes no deadline beyond the caller's context.
// Returns an error if d is negative.
func WithDeadline(d time.Duration) Option {
	return func(cfg *watchConfig) error {
		if d < 0 {
			return errors.New("deadline cannot be negative")
		}
		cfg.deadline = d
		return nil
	}
}

// WithMinInterval sets a floor for every wait between polls.
//
// Without a floor, an endpoint reporting expectedTime 0 while pending is
// polled again immediately. Defaults to 0. Returns an error if d is negative.
func WithMinInterval(d time.Duration) Option {
	return func(cfg *watchConfig) error {
		if d < 0 {
			return errors.New("min interval cannot be negative")
		}
		cfg.minInterval = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Watcher.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *watchConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithDecoder sets how response bodies are interpreted.
//
// If not specified, [DefaultDecoder] is used. Returns an error if d is nil.
func WithDecoder(d Decoder) Option {
	return func(cfg *watchConfig) error {
		if d == nil {
			return errors.New("decoder cannot be nil")
		}
		cfg.decoder = d
		return nil
	}
}

// WithHTTPClient sets the *http.Client used for status requests.
//
// Transport concerns such as TLS and connection pooling are configured on
// the client. The per-request timeout from [WithTimeout] still applies.
// Returns an error if c is nil.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *watchConfig) error {
		if c == nil {
			return errors.New("http client cannot be nil")
		}
		cfg.httpClient = c
		return nil
	}
}

// WithAttemptCallback registers a function called after every poll attempt.
//
// Callbacks run synchronously on the polling goroutine in registration
// order, so they delay the next fetch; keep them short. Panics within
// callbacks are recovered and logged.
//
// Example:
//
//	w, err := jobwatch.New(url,
//	    jobwatch.WithAttemptCallback(func(a jobwatch.Attempt) {
//	        fmt.Printf("%d%% done, next check in %s\n", a.Snapshot.Progress, a.Wait)
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithAttemptCallback(cb func(Attempt)) Option {
	return func(cfg *watchConfig) error {
		if cb == nil {
			return nil
		}
		cfg.attemptCallbacks = append(cfg.attemptCallbacks, cb)
		return nil
	}
}
