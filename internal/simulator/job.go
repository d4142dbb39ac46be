package simulator

import (
	"errors"
	"math/rand/v2"
	"time"
)

// Status values reported by a simulated job.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Snapshot is the wire representation served by the status endpoint.
type Snapshot struct {
	Status       string  `json:"status"`
	Progress     int     `json:"progress"`
	ExpectedTime float64 `json:"expectedTime"`
}

// Clock returns the current time.
type Clock func() time.Time

// Job is a simulated job that finishes after a fixed delay with a fixed outcome.
//
// Job is immutable and safe for concurrent use.
type Job struct {
	delay   time.Duration
	outcome string
	start   time.Time
	clock   Clock
}

// NewJob creates a [Job] started at start that reports outcome once delay
// has elapsed. A nil clock uses time.Now.
func NewJob(delay time.Duration, outcome string, start time.Time, clock Clock) (*Job, error) {
	if delay <= 0 {
		return nil, errors.New("delay must be positive")
	}
	if outcome != StatusCompleted && outcome != StatusError {
		return nil, errors.New("outcome must be completed or error")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Job{delay: delay, outcome: outcome, start: start, clock: clock}, nil
}

// NewRandomJob creates a [Job] starting now with a delay drawn uniformly from
// [minDelay, maxDelay] and an outcome chosen with equal probability.
// A nil rng uses the package-level math/rand/v2 source.
func NewRandomJob(minDelay, maxDelay time.Duration, clock Clock, rng *rand.Rand) (*Job, error) {
	if minDelay <= 0 {
		return nil, errors.New("min delay must be positive")
	}
	if maxDelay < minDelay {
		return nil, errors.New("max delay must not be less than min delay")
	}
	if clock == nil {
		clock = time.Now
	}

	draw := rand.Float64
	if rng != nil {
		draw = rng.Float64
	}

	delay := minDelay + time.Duration(draw()*float64(maxDelay-minDelay))
	outcome := StatusError
	if draw() > 0.5 {
		outcome = StatusCompleted
	}
	return NewJob(delay, outcome, clock(), clock)
}

// Delay returns how long the job takes to finish.
func (j *Job) Delay() time.Duration {
	return j.delay
}

// Outcome returns the terminal status the job will report.
func (j *Job) Outcome() string {
	return j.outcome
}

// StatusAt returns the job's state after elapsed time.
//
// Progress grows linearly to 100 over the delay. The status stays pending
// until elapsed reaches the delay, then reports the outcome. Negative
// elapsed time is treated as zero.
func (j *Job) StatusAt(elapsed time.Duration) Snapshot {
	if elapsed < 0 {
		elapsed = 0
	}

	progress := 100
	if elapsed < j.delay {
		progress = int(float64(elapsed) / float64(j.delay) * 100)
	}

	status := StatusPending
	if elapsed >= j.delay {
		status = j.outcome
	}

	return Snapshot{
		Status:       status,
		Progress:     progress,
		ExpectedTime: j.delay.Seconds(),
	}
}

// Snapshot returns the job's state at the current clock time.
func (j *Job) Snapshot() Snapshot {
	return j.StatusAt(j.clock().Sub(j.start))
}
