package config

import (
	"errors"
	"sort"

	"github.com/jpalmerr/jobwatch"
)

// default payload field names used when fields are only partly configured
const (
	defaultStatusField       = "status"
	defaultProgressField     = "progress"
	defaultExpectedTimeField = "expectedTime"
)

// BuildWatcher creates a [jobwatch.Watcher] from the watch section.
//
// extra options are applied after the configured ones, so callers can
// supply a logger or callbacks. Returns an error if no URL is configured.
func BuildWatcher(cfg *Config, extra ...jobwatch.Option) (*jobwatch.Watcher, error) {
	if cfg.Watch.URL == "" {
		return nil, errors.New("watch: url is required")
	}
	opts := BuildOptions(cfg.Watch)
	opts = append(opts, extra...)
	return jobwatch.New(cfg.Watch.URL, opts...)
}

// BuildOptions converts the watch section into SDK options.
//
// Zero values are omitted so the SDK defaults apply.
func BuildOptions(wc WatchConfig) []jobwatch.Option {
	var opts []jobwatch.Option

	if wc.StatusPath != nil {
		opts = append(opts, jobwatch.WithStatusPath(*wc.StatusPath))
	}

	if wc.Timeout != 0 {
		opts = append(opts, jobwatch.WithTimeout(wc.Timeout.Duration()))
	}

	if len(wc.Headers) > 0 {
		opts = append(opts, jobwatch.WithHeaders(mapToKeyValuePairs(wc.Headers)...))
	}

	if wc.TransitionProgress != nil {
		opts = append(opts, jobwatch.WithTransitionProgress(*wc.TransitionProgress))
	}

	if wc.MaxAttempts != 0 {
		opts = append(opts, jobwatch.WithMaxAttempts(wc.MaxAttempts))
	}

	if wc.Deadline != 0 {
		opts = append(opts, jobwatch.WithDeadline(wc.Deadline.Duration()))
	}

	if wc.MinInterval != 0 {
		opts = append(opts, jobwatch.WithMinInterval(wc.MinInterval.Duration()))
	}

	if decoder := buildDecoder(wc.Fields); decoder != nil {
		opts = append(opts, jobwatch.WithDecoder(decoder))
	}

	return opts
}

// buildDecoder converts FieldsConfig to a Decoder.
// Returns nil when no fields are configured (SDK uses DefaultDecoder).
func buildDecoder(fc *FieldsConfig) jobwatch.Decoder {
	if fc == nil || (fc.Status == "" && fc.Progress == "" && fc.ExpectedTime == "") {
		return nil
	}
	return jobwatch.JSONFieldDecoder(
		orDefault(fc.Status, defaultStatusField),
		orDefault(fc.Progress, defaultProgressField),
		orDefault(fc.ExpectedTime, defaultExpectedTimeField),
	)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
