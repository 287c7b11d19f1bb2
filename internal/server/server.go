package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/opin/internal/authstate"
	"github.com/nfrund/opin/internal/captcha"
	"github.com/nfrund/opin/internal/config"
	"github.com/nfrund/opin/internal/handlers"
	appmiddleware "github.com/nfrund/opin/internal/middleware"
	"github.com/nfrund/opin/internal/module"
	"github.com/nfrund/opin/internal/rendering"
	"github.com/nfrund/opin/internal/storage"
	"github.com/nfrund/opin/web"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	Cfg      config.Provider
	Auth     *authstate.Service
	Verifier captcha.Verifier
	// Avatars is set when avatars are stored on local disk and served by
	// this server.
	Avatars *storage.AferoStore
	// OriginPatterns are extra hosts allowed to open the auth event stream.
	OriginPatterns []string

	health  func(ctx context.Context) error
	modules []module.Module
	closers []func() error
}

// Dependencies holds all the services the server needs. Auth, Sessions and
// Config are required.
type Dependencies struct {
	Config   config.Provider
	Auth     *authstate.Service
	Sessions sessions.Store
	Verifier captcha.Verifier
	Renderer echo.Renderer
	Avatars  *storage.AferoStore
	Echo     *echo.Echo
	// Health, when set, is checked by GET /health.
	Health func(ctx context.Context) error
}

// New creates a new Server instance with the global middleware installed.
// Routes are added by RegisterRoutes and InitModules.
func New(deps Dependencies) (*Server, error) {
	if deps.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if deps.Auth == nil {
		return nil, errors.New("server: auth service is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("server: session store is required")
	}

	e := deps.Echo
	if e == nil {
		e = echo.New()
	}
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger)
	e.Use(middleware.Recover())
	e.Use(session.Middleware(deps.Sessions))

	if deps.Renderer == nil {
		deps.Renderer = rendering.NewUniversalRenderer()
	}
	e.Renderer = deps.Renderer

	e.StaticFS("/static", echo.MustSubFS(web.FS, "static"))
	setupErrorHandling(e)

	verifier := captcha.ForSiteKey(deps.Verifier, deps.Config.GetTurnstileSiteKey())

	return &Server{
		E:        e,
		Cfg:      deps.Config,
		Auth:     deps.Auth,
		Verifier: verifier,
		Avatars:  deps.Avatars,
		health:   deps.Health,
	}, nil
}

// OnShutdown registers fn to run after the HTTP server has stopped. Closers
// run in reverse order of registration.
func (s *Server) OnShutdown(fn func() error) {
	s.closers = append(s.closers, fn)
}

// setupErrorHandling renders the 404 page for unknown routes and logs every
// error that is not an *echo.HTTPError together with a stack trace.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Code == http.StatusNotFound && c.Request().Method == http.MethodGet {
				if rerr := handlers.NotFound(c); rerr == nil {
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		appmiddleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err),
			slog.String("stack_trace", string(debug.Stack())),
		)
		e.DefaultHTTPErrorHandler(err, c)
	}
}
