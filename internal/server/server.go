package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mzaruba/fvemon/internal/store"
)

const (
	// sseWriteTimeout bounds a single SSE write so a slow or disconnected
	// client cannot leak the handler goroutine.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Server handles HTTP requests for the monitor's status API.
//
// Routes:
//   - GET /api/status: latest cycle record as JSON
//   - GET /api/events: Server-Sent Events stream of cycle records
//   - GET /live, GET /ready: probes
//
// The server shuts down gracefully when the context passed to [Server.Start]
// is cancelled.
type Server struct {
	store      *store.Store
	addr       string
	listener   net.Listener
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a status [Server] reading from st and listening on addr.
// The server is not started until [Server.Start] is called.
func New(st *store.Store, addr string, logger *slog.Logger) *Server {
	return &Server{
		store:  st,
		addr:   addr,
		logger: logger,
	}
}

// Start begins serving in a background goroutine.
//
// Start is non-blocking and returns once the listener is bound, so a taken
// port fails fast. The server runs until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	r := chi.NewRouter()
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/events", s.handleEvents)
	r.Get("/live", s.handleProbe)
	r.Get("/ready", s.handleProbe)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.addr, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:     r,
		ReadTimeout: 5 * time.Second,
		// request contexts derive from the server context, so SSE
		// handlers unwind on shutdown as well as client disconnect
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("status server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("status server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address, empty before [Server.Start]. Useful
// when the server was configured with port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// handleStatus returns the latest cycle record as JSON, 503 until the first
// cycle has completed.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.Latest()
	if !ok {
		http.Error(w, "no cycle completed yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		s.logger.Error("failed to encode status response", "error", err)
	}
}

// handleEvents streams cycle records via Server-Sent Events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	// replay the latest record so new clients start with current state
	if rec, ok := s.store.Latest(); ok {
		data, err := json.Marshal(rec)
		if err == nil {
			if err := writeAndFlush(data); err != nil {
				return
			}
		}
	}

	for {
		select {
		case rec, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(rec)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// handleProbe answers liveness and readiness checks.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
