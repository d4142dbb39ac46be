package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// status payloads are tiny; anything larger is not a status document
const maxResponseBodySize = 64 << 10 // 64KB

// Doer is the subset of *http.Client used by [Client].
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response holds the result of a single status request made by [Client].
type Response struct {
	// Body contains the response body, limited to 64KB.
	Body []byte

	// StatusCode is the HTTP status code.
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any transport error that occurred during the request.
	// A non-2xx status code is not reported here.
	Error error
}

// Client performs status requests against a job endpoint.
//
// Client applies the timeout per request via context rather than on the
// underlying http.Client, so a single Doer can be shared by sessions with
// different timeouts.
type Client struct {
	doer Doer
}

// NewClient creates a [Client] that sends requests through doer.
// If doer is nil, a dedicated *http.Client using [NewTransport] is used.
func NewClient(doer Doer) *Client {
	if doer == nil {
		doer = defaultDoer()
	}
	return &Client{doer: doer}
}

// Fetch performs a GET request against url and returns a structured [Response].
//
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately. A timeout of zero means no per-request
// timeout beyond ctx.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string, timeout time.Duration) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close releases idle connections held by the underlying transport.
//
// Safe to call multiple times and on a nil receiver. The client remains
// usable afterwards.
func (c *Client) Close() {
	if c == nil || c.doer == nil {
		return
	}
	if closer, ok := c.doer.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}
