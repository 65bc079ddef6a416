package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
)

// lifecycle wraps a Server's *http.Server with explicit listen/shutdown
// bookkeeping: an explicit listener, a running flag, and a
// context-bound Shutdown.
type lifecycle struct {
	mu         sync.Mutex
	running    bool
	httpServer *http.Server
	listener   net.Listener
}

// ListenAndServe binds the configured host:port and blocks serving
// requests until Shutdown is called or the listener errors.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("health server listen failed: %w", err)
	}

	s.lc.mu.Lock()
	s.lc.listener = ln
	s.lc.httpServer = &http.Server{Handler: s.router}
	s.lc.running = true
	s.lc.mu.Unlock()

	err = s.lc.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server, if running.
func (s *Server) Shutdown(ctx context.Context) error {
	s.lc.mu.Lock()
	if !s.lc.running {
		s.lc.mu.Unlock()
		return nil
	}
	s.lc.running = false
	srv := s.lc.httpServer
	s.lc.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
