package server

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/handlers"
	"github.com/nfrund/opin/internal/middleware"
	"github.com/nfrund/opin/internal/module"
	"github.com/nfrund/opin/internal/storage"
)

// coreRoutes is the route table of the auth flow and the dashboard shell.
func (s *Server) coreRoutes() []module.Route {
	siteKey := s.Cfg.GetTurnstileSiteKey()
	home := handlers.NewHomeHandler(s.Auth, siteKey)
	auth := handlers.NewAuthHandler(s.Auth, s.Verifier, siteKey, s.Cfg.GetAppBaseURL())
	events := handlers.NewEventsHandler(s.Auth)
	events.OriginPatterns = s.OriginPatterns

	routes := []module.Route{
		{Method: http.MethodGet, Path: "/", Handler: home.HomeGet},
		{Method: http.MethodGet, Path: "/dashboard", Guard: authgate.Protected, Handler: home.DashboardGet},
		{Method: http.MethodGet, Path: "/analytics", Guard: authgate.Protected, Handler: home.AnalyticsGet},

		{Method: http.MethodGet, Path: authgate.SignInPath, Guard: authgate.GuestOnly, Handler: auth.SignInGet},
		{Method: http.MethodPost, Path: authgate.SignInPath, Guard: authgate.GuestOnly, Limited: true, Handler: auth.SignInPost},
		{Method: http.MethodGet, Path: "/auth/login", Handler: auth.LoginGet},
		{Method: http.MethodGet, Path: "/auth/sign-up", Guard: authgate.GuestOnly, Handler: auth.SignUpGet},
		{Method: http.MethodPost, Path: "/auth/sign-up", Guard: authgate.GuestOnly, Limited: true, Handler: auth.SignUpPost},
		{Method: http.MethodGet, Path: "/auth/sign-up-success", Handler: auth.SignUpSuccessGet},
		{Method: http.MethodGet, Path: "/auth/forgot-password", Guard: authgate.GuestOnly, Handler: auth.ForgotPasswordGet},
		{Method: http.MethodPost, Path: "/auth/forgot-password", Guard: authgate.GuestOnly, Limited: true, Handler: auth.ForgotPasswordPost},
		{Method: http.MethodGet, Path: "/auth/forgot-password-success", Handler: auth.ForgotPasswordSuccessGet},
		{Method: http.MethodGet, Path: authgate.UpdatePasswordPath, Guard: authgate.Protected, Handler: auth.UpdatePasswordGet},
		{Method: http.MethodPost, Path: authgate.UpdatePasswordPath, Guard: authgate.Protected, Limited: true, Handler: auth.UpdatePasswordPost},
		{Method: http.MethodGet, Path: authgate.SetupPasswordPath, Guard: authgate.Protected, Handler: auth.SetupPasswordGet},
		{Method: http.MethodPost, Path: authgate.SetupPasswordPath, Guard: authgate.Protected, Limited: true, Handler: auth.SetupPasswordPost},
		{Method: http.MethodGet, Path: "/auth/confirm", Handler: auth.Confirm},
		{Method: http.MethodGet, Path: "/auth/error", Handler: auth.ErrorGet},
		{Method: http.MethodPost, Path: "/auth/sign-out", Handler: auth.SignOut},
		{Method: http.MethodGet, Path: "/auth/events", Handler: events.Stream},

		{Method: http.MethodGet, Path: "/health", Handler: s.healthGet},
	}
	if s.Avatars != nil {
		routes = append(routes, module.Route{
			Method:  http.MethodGet,
			Path:    "/avatars/:name",
			Handler: storage.NewFileHandler(s.Avatars).Download,
		})
	}
	return routes
}

func (s *Server) healthGet(c echo.Context) error {
	if s.health != nil {
		if err := s.health(c.Request().Context()); err != nil {
			middleware.FromContext(c.Request().Context()).Warn("health check failed", "error", err)
			return c.String(http.StatusServiceUnavailable, "UNAVAILABLE")
		}
	}
	return c.String(http.StatusOK, "OK")
}

// Guard returns the middleware enforcing kind. Public routes get none.
func (s *Server) Guard(kind authgate.Kind) []echo.MiddlewareFunc {
	switch kind {
	case authgate.Protected:
		return []echo.MiddlewareFunc{middleware.RequireAuth(s.Auth)}
	case authgate.GuestOnly:
		return []echo.MiddlewareFunc{middleware.RedirectAuthenticated(s.Auth)}
	}
	return nil
}

// RegisterRoutes sets up all the core application routes.
func (s *Server) RegisterRoutes() {
	rateLimiter := middleware.RateLimiter()
	for _, r := range s.coreRoutes() {
		mw := s.Guard(r.Guard)
		if r.Limited {
			mw = append([]echo.MiddlewareFunc{rateLimiter}, mw...)
		}
		s.E.Add(r.Method, r.Path, r.Handler, mw...)
	}
}

// RouteTable lists the core routes and those of the booted modules, sorted
// by path and method.
func (s *Server) RouteTable() []module.Route {
	routes := s.coreRoutes()
	for _, m := range s.modules {
		if lister, ok := m.(module.RouteLister); ok {
			routes = append(routes, lister.Routes()...)
		}
	}
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}
