package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/middleware"
	"github.com/nfrund/opin/web/src/templates/pages"
)

// HomeHandler serves the root and the dashboard.
type HomeHandler struct {
	auth    middleware.StateResolver
	siteKey string
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(auth middleware.StateResolver, siteKey string) *HomeHandler {
	return &HomeHandler{auth: auth, siteKey: siteKey}
}

// HomeGet sends signed-in visitors to the dashboard and everyone else to
// sign-in.
func (h *HomeHandler) HomeGet(c echo.Context) error {
	state, _, err := h.auth.Current(c)
	if err != nil {
		middleware.FromContext(c.Request().Context()).Warn("session query failed", "error", err)
		state = authgate.Unauthenticated
	}
	if state == authgate.Authenticated {
		return c.Redirect(http.StatusSeeOther, authgate.DefaultNext)
	}
	return c.Redirect(http.StatusSeeOther, authgate.SignInPath)
}

// DashboardGet shows the user's dashboard page.
func (h *HomeHandler) DashboardGet(c echo.Context) error {
	return c.Render(http.StatusOK, "", pages.Dashboard(PageFor(c, "Dashboard", h.siteKey)))
}

// AnalyticsGet is a placeholder page.
func (h *HomeHandler) AnalyticsGet(c echo.Context) error {
	return c.Render(http.StatusOK, "", pages.ComingSoon(PageFor(c, "Analytics", h.siteKey), "Analytics", "Trends across your feedback."))
}
