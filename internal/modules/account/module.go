// Package account serves the signed-in user's profile and settings pages.
package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/avatar"
	"github.com/nfrund/opin/internal/captcha"
	"github.com/nfrund/opin/internal/module"
	"github.com/nfrund/opin/internal/registry"
)

// Dependencies holds all the services that the account module requires.
type Dependencies struct {
	Auth     Service
	Avatars  *avatar.Service
	Verifier captcha.Verifier
	SiteKey  string
	// Guard protects every route of the module.
	Guard echo.MiddlewareFunc
}

// AccountModule implements module.Module for the profile and settings pages.
type AccountModule struct {
	module.BaseModule
	deps Dependencies
}

// New creates a new instance of the AccountModule.
func New(deps Dependencies) *AccountModule {
	deps.Verifier = captcha.ForSiteKey(deps.Verifier, deps.SiteKey)
	return &AccountModule{deps: deps}
}

// Name returns the module name.
func (m *AccountModule) Name() string {
	return "account"
}

// Register shares the avatar service and the challenge verifier with other
// modules.
func (m *AccountModule) Register(reg *registry.Registry) error {
	if m.deps.Avatars != nil {
		registry.Set(reg, registry.AvatarServiceKey, m.deps.Avatars)
	}
	registry.Set(reg, registry.VerifierKey, m.deps.Verifier)
	return nil
}

// Routes lists the module's endpoints. Every one of them needs a session.
func (m *AccountModule) Routes() []module.Route {
	return m.routes(nil)
}

func (m *AccountModule) routes(h *Handler) []module.Route {
	route := func(method, path string, handler func(*Handler) echo.HandlerFunc) module.Route {
		r := module.Route{Method: method, Path: path, Guard: authgate.Protected}
		if h != nil {
			r.Handler = handler(h)
		}
		return r
	}
	return []module.Route{
		route(http.MethodGet, "/profile", func(h *Handler) echo.HandlerFunc { return h.ProfileGet }),
		route(http.MethodPost, "/profile", func(h *Handler) echo.HandlerFunc { return h.ProfilePost }),
		route(http.MethodPost, "/profile/avatar", func(h *Handler) echo.HandlerFunc { return h.AvatarPost }),
		route(http.MethodPost, "/profile/avatar/delete", func(h *Handler) echo.HandlerFunc { return h.AvatarDeletePost }),
		route(http.MethodGet, "/settings", func(h *Handler) echo.HandlerFunc { return h.SettingsGet }),
		route(http.MethodPost, "/settings/password", func(h *Handler) echo.HandlerFunc { return h.PasswordPost }),
		route(http.MethodGet, "/settings/team", func(h *Handler) echo.HandlerFunc { return h.TeamGet }),
		route(http.MethodGet, "/settings/organization", func(h *Handler) echo.HandlerFunc { return h.OrganizationGet }),
	}
}

// Boot sets up the routes. The group is mounted at the site root.
func (m *AccountModule) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	slog.Info("Booting AccountModule: Setting up routes...")
	avatars, _ := registry.Get(reg, registry.AvatarServiceKey)
	h := NewHandler(m.deps.Auth, avatars, registry.MustGet(reg, registry.VerifierKey), m.deps.SiteKey)

	var mw []echo.MiddlewareFunc
	if m.deps.Guard != nil {
		mw = append(mw, m.deps.Guard)
	}
	for _, r := range m.routes(h) {
		g.Add(r.Method, r.Path, r.Handler, mw...)
	}
	return nil
}
