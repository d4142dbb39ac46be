package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Source performs single status queries against one job endpoint.
//
// Source never reports a failure to its caller: any transport error,
// non-2xx response or undecodable body is logged at ERROR and replaced by
// [Sentinel]. Retrying is left to [Loop].
type Source struct {
	client  *Client
	url     string
	headers map[string]string
	timeout time.Duration
	decode  Decoder
	logger  *slog.Logger
}

// SourceConfig configures a [Source].
type SourceConfig struct {
	// URL is the full status URL (base URL joined with the status path).
	URL string

	// Headers are sent with every request.
	Headers map[string]string

	// Timeout bounds a single request. Zero means no per-request timeout.
	Timeout time.Duration

	// Decoder interprets the body. Nil uses [DecodeJSON].
	Decoder Decoder
}

// NewSource creates a [Source] that queries cfg.URL through client.
func NewSource(client *Client, cfg SourceConfig, logger *slog.Logger) *Source {
	decode := cfg.Decoder
	if decode == nil {
		decode = DecodeJSON
	}
	return &Source{
		client:  client,
		url:     cfg.URL,
		headers: cfg.Headers,
		timeout: cfg.Timeout,
		decode:  decode,
		logger:  logger,
	}
}

// Fetch performs one status query and returns the resulting [Snapshot].
func (s *Source) Fetch(ctx context.Context) Snapshot {
	resp := s.client.Fetch(ctx, s.url, s.headers, s.timeout)
	if resp.Error != nil {
		return s.fail(resp.Error, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.fail(fmt.Errorf("unexpected status code %d", resp.StatusCode), resp.StatusCode)
	}

	snap, err := s.safeDecode(resp.Body)
	if err != nil {
		return s.fail(err, resp.StatusCode)
	}
	return snap
}

func (s *Source) fail(err error, statusCode int) Snapshot {
	s.logger.Error("error fetching status",
		"url", s.url,
		"status_code", statusCode,
		"error", err.Error(),
	)
	return Sentinel
}

// safeDecode calls the decoder with panic recovery.
// A panic is logged with its stack trace under a correlation ID and
// reported as an error carrying that ID.
func (s *Source) safeDecode(body []byte) (snap Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("decoder panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			snap = Snapshot{}
			err = fmt.Errorf("decoder panic (correlation_id: %s)", correlationID)
		}
	}()
	return s.decode(body)
}
