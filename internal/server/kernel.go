package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/opin/internal/module"
	"github.com/nfrund/opin/internal/registry"
)

// InitModules runs the two-phase module lifecycle: every module registers
// its services first, then every module boots against the site root.
func (s *Server) InitModules(ctx context.Context, modules []module.Module, reg *registry.Registry) error {
	for _, m := range modules {
		if err := m.Register(reg); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
	}
	slog.Debug("modules registered", "services", reg.Names())

	// No middleware on the root group: a group with middleware adds
	// catch-all routes that would shadow the 404 page.
	root := s.E.Group("")
	for _, m := range modules {
		slog.Debug("booting module", "module", m.Name())
		if err := m.Boot(ctx, root, reg); err != nil {
			return fmt.Errorf("boot module %s: %w", m.Name(), err)
		}
		s.modules = append(s.modules, m)
	}
	return nil
}
