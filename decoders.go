package jobwatch

import (
	"github.com/jpalmerr/jobwatch/internal/poller"
)

// Decoder is a function that interprets a status response body as a [Snapshot].
//
// Returning an error marks the fetch as failed: the watcher logs the error
// and treats the attempt as the terminal sentinel {error, 0, 0}.
//
// # Panic Safety
//
// Decoders are called within a panic recovery boundary. A panicking decoder
// is logged with a correlation ID and handled like a decoder error.
type Decoder func(body []byte) (Snapshot, error)

// DefaultDecoder reads the flat payload
//
//	{"status": "pending", "progress": 42, "expectedTime": 120}
//
// status is required; progress and expectedTime default to zero when absent.
// Status values are lowercased.
var DefaultDecoder Decoder = func(body []byte) (Snapshot, error) {
	snap, err := poller.DecodeJSON(body)
	if err != nil {
		return Snapshot{}, err
	}
	return fromPollerSnapshot(snap), nil
}

// JSONFieldDecoder returns a [Decoder] that reads each value from a JSON
// field using dot notation to navigate nested objects.
//
// statusPath is required. An empty progressPath or expectedTimePath leaves
// that value at zero.
//
// Example:
//
//	// For response: {"job": {"state": "pending", "pct": 40}, "eta": 90}
//	decoder := jobwatch.JSONFieldDecoder("job.state", "job.pct", "eta")
func JSONFieldDecoder(statusPath, progressPath, expectedTimePath string) Decoder {
	decode := poller.FieldDecoder(statusPath, progressPath, expectedTimePath)
	return func(body []byte) (Snapshot, error) {
		snap, err := decode(body)
		if err != nil {
			return Snapshot{}, err
		}
		return fromPollerSnapshot(snap), nil
	}
}

// toPollerDecoder adapts a public decoder to the poller representation.
func toPollerDecoder(d Decoder) poller.Decoder {
	if d == nil {
		return nil
	}
	return func(body []byte) (poller.Snapshot, error) {
		snap, err := d(body)
		if err != nil {
			return poller.Snapshot{}, err
		}
		return toPollerSnapshot(snap), nil
	}
}
