package poller

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Status values reported by a job endpoint.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Snapshot is one observation of a job's state.
//
// This is the poller-internal representation, decoupled from the public
// jobwatch.Snapshot type to avoid circular dependencies.
type Snapshot struct {
	Status       string
	Progress     int
	ExpectedTime float64 // seconds
}

// Sentinel is returned by [Source.Fetch] whenever the real status cannot be
// obtained. It is indistinguishable from a remote "error" report.
var Sentinel = Snapshot{Status: StatusError}

// IsTerminal reports whether polling stops at this snapshot.
func (s Snapshot) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusError
}

// Decoder turns a response body into a [Snapshot].
type Decoder func(body []byte) (Snapshot, error)

// DecodeJSON reads the flat {"status", "progress", "expectedTime"} payload.
//
// status is required. progress and expectedTime default to zero when absent;
// fractional progress is truncated.
func DecodeJSON(body []byte) (Snapshot, error) {
	var payload struct {
		Status       *string  `json:"status"`
		Progress     *float64 `json:"progress"`
		ExpectedTime *float64 `json:"expectedTime"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Snapshot{}, fmt.Errorf("invalid status payload: %w", err)
	}
	if payload.Status == nil {
		return Snapshot{}, errors.New("invalid status payload: missing status field")
	}

	snap := Snapshot{Status: strings.ToLower(*payload.Status)}
	if payload.Progress != nil {
		snap.Progress = int(*payload.Progress)
	}
	if payload.ExpectedTime != nil {
		snap.ExpectedTime = *payload.ExpectedTime
	}
	return snap, nil
}

// FieldDecoder returns a [Decoder] that reads each value from a dot-notation
// path, e.g. "job.state" for {"job": {"state": "pending"}}.
//
// An empty progressPath or expectedTimePath leaves that value at zero.
func FieldDecoder(statusPath, progressPath, expectedTimePath string) Decoder {
	statusParts := splitPath(statusPath)
	progressParts := splitPath(progressPath)
	expectedParts := splitPath(expectedTimePath)

	return func(body []byte) (Snapshot, error) {
		var data interface{}
		if err := json.Unmarshal(body, &data); err != nil {
			return Snapshot{}, fmt.Errorf("invalid status payload: %w", err)
		}

		rawStatus, ok := lookupPath(data, statusParts)
		if !ok {
			return Snapshot{}, fmt.Errorf("invalid status payload: missing field %q", statusPath)
		}
		status, ok := rawStatus.(string)
		if !ok {
			return Snapshot{}, fmt.Errorf("invalid status payload: field %q is not a string", statusPath)
		}

		snap := Snapshot{Status: strings.ToLower(status)}

		if progressParts != nil {
			v, err := numberAt(data, progressParts, progressPath)
			if err != nil {
				return Snapshot{}, err
			}
			snap.Progress = int(v)
		}
		if expectedParts != nil {
			v, err := numberAt(data, expectedParts, expectedTimePath)
			if err != nil {
				return Snapshot{}, err
			}
			snap.ExpectedTime = v
		}
		return snap, nil
	}
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// lookupPath walks a JSON structure using dot notation parts.
func lookupPath(data interface{}, parts []string) (interface{}, bool) {
	current := data
	for _, part := range parts {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// numberAt returns the number at parts, or zero if the field is absent.
func numberAt(data interface{}, parts []string, path string) (float64, error) {
	raw, ok := lookupPath(data, parts)
	if !ok || raw == nil {
		return 0, nil
	}
	v, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("invalid status payload: field %q is not a number", path)
	}
	return v, nil
}
