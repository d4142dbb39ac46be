package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTimeout is returned when the session deadline passes before a
	// terminal status is observed.
	ErrTimeout = errors.New("timed out waiting for terminal status")

	// ErrMaxAttempts is returned when the attempt ceiling is reached before
	// a terminal status is observed.
	ErrMaxAttempts = errors.New("max attempts reached without terminal status")
)

// Fetcher performs one status query. [Source] is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context) Snapshot
}

// Attempt describes one completed poll within a session.
type Attempt struct {
	// SessionID identifies the [Loop.Run] invocation.
	SessionID string

	// Index is the 0-based attempt number.
	Index int

	// Snapshot is what the source reported.
	Snapshot Snapshot

	// Wait is the delay before the next attempt. Zero for the last attempt.
	Wait time.Duration

	// CheckedAt is when the fetch returned.
	CheckedAt time.Time
}

// LoopConfig holds the optional limits of a [Loop].
type LoopConfig struct {
	// MaxAttempts stops the session after this many non-terminal attempts.
	// Zero means unlimited.
	MaxAttempts int

	// MinInterval is a floor applied to every computed wait.
	MinInterval time.Duration

	// OnAttempt is invoked synchronously after every attempt. May be nil.
	OnAttempt func(Attempt)
}

// Loop polls a [Fetcher] until it reports a terminal status.
//
// Each session is strictly sequential: fetch, decide, wait. A Loop holds no
// per-session state, so Run may be called concurrently for independent
// sessions.
type Loop struct {
	source    Fetcher
	intervals Intervals
	cfg       LoopConfig
	logger    *slog.Logger

	// sleep is replaced in tests to observe waits without blocking
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLoop creates a [Loop] that queries source and paces itself with intervals.
func NewLoop(source Fetcher, intervals Intervals, cfg LoopConfig, logger *slog.Logger) *Loop {
	return &Loop{
		source:    source,
		intervals: intervals,
		cfg:       cfg,
		logger:    logger,
		sleep:     sleepContext,
	}
}

// Run polls until a terminal status is observed and returns it.
//
// With no context deadline and no attempt ceiling Run only returns on a
// terminal status. A context deadline surfaces as an error wrapping
// [ErrTimeout], cancellation as ctx.Err(), the ceiling as [ErrMaxAttempts].
func (l *Loop) Run(ctx context.Context) (string, error) {
	sessionID := uuid.NewString()
	logger := l.logger.With("session_id", sessionID)
	start := time.Now()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", interrupted(err)
		}

		snap := l.source.Fetch(ctx)
		checkedAt := time.Now()

		// a fetch cut short by the context yields the sentinel; that is not
		// a remote outcome. A real report that raced the cancel still counts.
		if err := ctx.Err(); err != nil && snap == Sentinel {
			return "", interrupted(err)
		}

		logger.Info("poll attempt",
			"attempt", attempt+1,
			"status", snap.Status,
			"progress", snap.Progress,
			"expected_time", snap.ExpectedTime,
		)

		result := Attempt{
			SessionID: sessionID,
			Index:     attempt,
			Snapshot:  snap,
			CheckedAt: checkedAt,
		}

		if snap.IsTerminal() {
			l.notify(logger, result)
			logger.Info("poll finished",
				"status", snap.Status,
				"attempts", attempt+1,
				"elapsed", time.Since(start).String(),
			)
			return snap.Status, nil
		}

		if l.cfg.MaxAttempts > 0 && attempt+1 >= l.cfg.MaxAttempts {
			l.notify(logger, result)
			logger.Warn("poll abandoned", "attempts", attempt+1, "last_status", snap.Status)
			return "", fmt.Errorf("%w (%d attempts)", ErrMaxAttempts, attempt+1)
		}

		wait := l.intervals.Next(attempt, snap.Progress, snap.ExpectedTime)
		if wait < l.cfg.MinInterval {
			wait = l.cfg.MinInterval
		}
		result.Wait = wait
		l.notify(logger, result)

		logger.Info("waiting before next poll",
			"wait", wait.String(),
			"seconds", wait.Seconds(),
		)

		if err := l.sleep(ctx, wait); err != nil {
			return "", interrupted(err)
		}
	}
}

// notify calls the attempt callback with panic recovery.
// Panics are logged with a correlation ID and do not stop the session.
func (l *Loop) notify(logger *slog.Logger, a Attempt) {
	if l.cfg.OnAttempt == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("attempt callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"attempt", a.Index+1,
			)
		}
	}()
	l.cfg.OnAttempt(a)
}

func interrupted(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
