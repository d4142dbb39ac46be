// Package config provides YAML configuration parsing for jobwatch.
//
// This package enables running the watcher and the job simulator as a
// standalone binary with a configuration file, as an alternative to the
// programmatic SDK approach.
//
// Example configuration:
//
//	watch:
//	  url: ${JOB_URL:-http://localhost:5001}
//	  timeout: 5s
//	  transition_progress: 60
//	  deadline: 30m
//	  headers:
//	    Authorization: Bearer ${JOB_TOKEN}
//	  fields:
//	    status: job.state
//	    progress: job.pct
//	    expected_time: eta
//
//	simulator:
//	  port: 5001
//	  min_delay: 60s
//	  max_delay: 180s
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultSimulatorPort = 5001
	defaultMinDelay      = 60 * time.Second
	defaultMaxDelay      = 180 * time.Second
)

// Config is the root configuration structure for jobwatch.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Watch configures the status watcher.
	Watch WatchConfig `yaml:"watch"`

	// Simulator configures the simulated job server.
	Simulator SimulatorConfig `yaml:"simulator"`
}

// WatchConfig defines the job endpoint to watch and how to pace polling.
type WatchConfig struct {
	// URL is the job's base URL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// StatusPath is appended to URL. Defaults to "/status" when omitted;
	// an explicit empty string polls URL itself.
	StatusPath *string `yaml:"status_path"`

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// TransitionProgress is the progress at which waits switch from backoff
	// to decay. Defaults to 60. Must be between 0 and 99.
	TransitionProgress *int `yaml:"transition_progress"`

	// MaxAttempts stops the session after this many non-terminal attempts.
	// Zero means no limit.
	MaxAttempts int `yaml:"max_attempts"`

	// Deadline bounds the whole session. Zero means no deadline.
	Deadline Duration `yaml:"deadline"`

	// MinInterval is a floor for every wait between polls.
	MinInterval Duration `yaml:"min_interval"`

	// Headers are custom HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Fields maps the payload fields to dot-notation paths.
	// If omitted, the flat {"status", "progress", "expectedTime"} payload is expected.
	Fields *FieldsConfig `yaml:"fields"`
}

// FieldsConfig locates status values in a JSON response.
//
// Each path uses dot notation for nested objects, e.g. "job.state".
// Unset paths fall back to the flat payload field names.
type FieldsConfig struct {
	Status       string `yaml:"status"`
	Progress     string `yaml:"progress"`
	ExpectedTime string `yaml:"expected_time"`
}

// SimulatorConfig defines the simulated job served by "jobwatch simulate".
type SimulatorConfig struct {
	// Port is the HTTP server port. Defaults to 5001.
	Port int `yaml:"port"`

	// MinDelay is the shortest simulated job duration. Defaults to 60s.
	MinDelay Duration `yaml:"min_delay"`

	// MaxDelay is the longest simulated job duration. Defaults to 180s.
	MaxDelay Duration `yaml:"max_delay"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables are expanded as described in [Parse].
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the watch URL and header values.
// Simulator defaults are applied for Port (5001), MinDelay (60s) and
// MaxDelay (180s). Watch defaults are left to the SDK.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Simulator.Port == 0 {
		cfg.Simulator.Port = defaultSimulatorPort
	}
	if cfg.Simulator.MinDelay == 0 {
		cfg.Simulator.MinDelay = Duration(defaultMinDelay)
	}
	if cfg.Simulator.MaxDelay == 0 {
		cfg.Simulator.MaxDelay = Duration(defaultMaxDelay)
	}

	if err := cfg.Watch.expandAndValidate(); err != nil {
		return nil, err
	}
	if err := cfg.Simulator.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the watch section.
// An absent URL is allowed so that simulator-only files parse; the watch
// command requires it.
func (w *WatchConfig) expandAndValidate() error {
	if w.URL != "" {
		expanded, err := expandEnvVars(w.URL)
		if err != nil {
			return fmt.Errorf("watch: url: %w", err)
		}
		w.URL = expanded

		parsedURL, err := url.Parse(w.URL)
		if err != nil {
			return fmt.Errorf("watch: invalid url: %w", err)
		}
		if parsedURL.Scheme == "" {
			return errors.New("watch: url must have a scheme (http:// or https://)")
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("watch: url scheme must be http or https, got %q", parsedURL.Scheme)
		}
	}

	for k, v := range w.Headers {
		if k == "" {
			return errors.New("watch: header name cannot be empty")
		}
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("watch: headers[%s]: %w", k, err)
		}
		w.Headers[k] = expanded
	}

	if w.Timeout < 0 {
		return fmt.Errorf("watch: timeout cannot be negative, got %s", w.Timeout.Duration())
	}

	if w.TransitionProgress != nil && (*w.TransitionProgress < 0 || *w.TransitionProgress >= 100) {
		return fmt.Errorf("watch: transition_progress must be between 0 and 99, got %d", *w.TransitionProgress)
	}

	if w.MaxAttempts < 0 {
		return fmt.Errorf("watch: max_attempts cannot be negative, got %d", w.MaxAttempts)
	}
	if w.Deadline < 0 {
		return fmt.Errorf("watch: deadline cannot be negative, got %s", w.Deadline.Duration())
	}
	if w.MinInterval < 0 {
		return fmt.Errorf("watch: min_interval cannot be negative, got %s", w.MinInterval.Duration())
	}

	if w.Fields != nil {
		for name, path := range map[string]string{
			"status":        w.Fields.Status,
			"progress":      w.Fields.Progress,
			"expected_time": w.Fields.ExpectedTime,
		} {
			if err := validateFieldPath(path); err != nil {
				return fmt.Errorf("watch: fields.%s: %w", name, err)
			}
		}
	}

	return nil
}

// validateFieldPath rejects dot paths with empty segments such as "a..b".
func validateFieldPath(path string) error {
	if path == "" {
		return nil
	}
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return fmt.Errorf("invalid path %q", path)
		}
	}
	return nil
}

func (s *SimulatorConfig) validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("simulator: port must be between 1 and 65535, got %d", s.Port)
	}
	if s.MinDelay.Duration() <= 0 {
		return fmt.Errorf("simulator: min_delay must be positive, got %s", s.MinDelay.Duration())
	}
	if s.MaxDelay < s.MinDelay {
		return fmt.Errorf("simulator: max_delay (%s) must not be less than min_delay (%s)",
			s.MaxDelay.Duration(), s.MinDelay.Duration())
	}
	return nil
}
