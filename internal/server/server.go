package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jpalmerr/jobwatch/internal/simulator"
)

// StatusPath is the single read endpoint served by [Server].
const StatusPath = "/status"

// shutdownTimeout bounds in-flight requests once the context is cancelled.
const shutdownTimeout = 5 * time.Second

// Provider supplies the snapshot returned by the status endpoint.
// [simulator.Job] is the production implementation.
type Provider interface {
	Snapshot() simulator.Snapshot
}

// Server exposes a job's status over HTTP.
//
// Server provides one endpoint:
//   - GET /status: the provider's current snapshot as JSON
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	provider   Provider
	port       int
	httpServer *http.Server
	logger     *slog.Logger

	mu   sync.Mutex
	addr net.Addr

	done chan struct{}
}

// NewServer creates a new HTTP [Server] for provider listening on port.
// Port 0 lets the OS choose; the bound address is available from [Server.Addr].
//
// The server is not started until [Server.Start] is called.
func NewServer(provider Provider, port int, logger *slog.Logger) *Server {
	return &Server{
		provider: provider,
		port:     port,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Handler returns the request router, for use with httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(StatusPath, s.handleStatus)
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server runs until the context is cancelled, at which
// point it shuts down gracefully with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		defer close(s.done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("status server listening", "addr", ln.Addr().String(), "path", StatusPath)
	return nil
}

// Addr returns the bound address, or nil before [Server.Start] succeeds.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Done is closed once a started server has finished shutting down.
// It never closes if [Server.Start] was not called or failed.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// handleStatus returns the current snapshot as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.provider.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error("failed to encode status response", "error", err)
		return
	}

	s.logger.Debug("status served",
		"status", snap.Status,
		"progress", snap.Progress,
		"expected_time", snap.ExpectedTime,
	)
}
