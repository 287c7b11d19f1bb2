package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Start runs the HTTP server until it fails or the process is asked to stop,
// then shuts down gracefully.
func (s *Server) Start() error {
	addr := s.Cfg.GetAddr()
	failed := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "address", addr)
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return fmt.Errorf("server: %w", err)
	case sig := <-waitForShutdown():
		slog.Info("Shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}
