package poller

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// Waits between polls can run to minutes. HTTP/2 connections idle for
// longer than h2ReadIdleTimeout are health-checked with a PING frame and
// dropped if it is not answered within h2PingTimeout, so the next poll dials
// afresh instead of stalling on a dead connection.
const (
	h2ReadIdleTimeout = 30 * time.Second
	h2PingTimeout     = 15 * time.Second
)

// NewTransport returns a clone of http.DefaultTransport with HTTP/2
// connection health checks enabled.
func NewTransport() (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()

	h2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, fmt.Errorf("failed to configure http2: %w", err)
	}
	h2.ReadIdleTimeout = h2ReadIdleTimeout
	h2.PingTimeout = h2PingTimeout

	return t, nil
}

// defaultDoer is the *http.Client used when the caller supplies none.
func defaultDoer() *http.Client {
	t, err := NewTransport()
	if err != nil {
		return &http.Client{}
	}
	return &http.Client{Transport: t}
}
