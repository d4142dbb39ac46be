package jobwatch

import (
	"time"

	"github.com/jpalmerr/jobwatch/internal/poller"
)

// Status represents the state a job endpoint reports.
//
// Status is a string type holding one of [StatusPending], [StatusCompleted]
// or [StatusError]. Values a source reports outside this set are carried
// verbatim and treated as non-terminal.
type Status string

const (
	// StatusPending indicates the job is still running.
	StatusPending Status = poller.StatusPending

	// StatusCompleted indicates the job finished successfully.
	StatusCompleted Status = poller.StatusCompleted

	// StatusError indicates the job failed, or that its status could not be
	// obtained.
	StatusError Status = poller.StatusError
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether polling stops at this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Snapshot is one observation of a job's state.
//
// Snapshot is a comparable value created fresh for every fetch.
type Snapshot struct {
	// Status is the reported job status.
	Status Status

	// Progress is the reported completion percentage, nominally 0-100.
	Progress int

	// ExpectedTime is the reported total expected job duration in seconds.
	ExpectedTime float64
}

// Attempt describes one poll within a [Watcher.Watch] session.
//
// Attempt values are passed to callbacks registered with
// [WithAttemptCallback].
type Attempt struct {
	// SessionID uniquely identifies the Watch call that made the attempt.
	SessionID string

	// Index is the 0-based attempt number within the session.
	Index int

	// Snapshot is what the endpoint reported. A failed fetch reports
	// {error, 0, 0}.
	Snapshot Snapshot

	// Wait is the delay before the next attempt. Zero for the final attempt.
	Wait time.Duration

	// CheckedAt is when the fetch completed.
	CheckedAt time.Time
}

func fromPollerSnapshot(s poller.Snapshot) Snapshot {
	return Snapshot{
		Status:       Status(s.Status),
		Progress:     s.Progress,
		ExpectedTime: s.ExpectedTime,
	}
}

func toPollerSnapshot(s Snapshot) poller.Snapshot {
	return poller.Snapshot{
		Status:       string(s.Status),
		Progress:     s.Progress,
		ExpectedTime: s.ExpectedTime,
	}
}

func fromPollerAttempt(a poller.Attempt) Attempt {
	return Attempt{
		SessionID: a.SessionID,
		Index:     a.Index,
		Snapshot:  fromPollerSnapshot(a.Snapshot),
		Wait:      a.Wait,
		CheckedAt: a.CheckedAt,
	}
}
