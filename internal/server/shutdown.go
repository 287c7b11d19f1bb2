package server

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// waitForShutdown returns a channel that receives the first interrupt or
// terminate signal.
func waitForShutdown() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	return quit
}

// Shutdown stops accepting requests, then shuts the booted modules down in
// reverse order and finally runs the closers registered with OnShutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.E.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	for i := len(s.modules) - 1; i >= 0; i-- {
		m := s.modules[i]
		if err := m.Shutdown(ctx); err != nil {
			slog.Error("module shutdown failed", "module", m.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
