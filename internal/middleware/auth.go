package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/domain"
)

const (
	// UserContextKey holds the *domain.User of a signed-in visitor.
	UserContextKey = "user"
	// GuardContextKey holds the authgate.Kind of the matched route.
	GuardContextKey = "guard"
)

// StateResolver resolves the auth state of a request.
type StateResolver interface {
	Current(c echo.Context) (authgate.State, *domain.User, error)
}

// RequireAuth protects routes that need a session. A session that cannot be
// resolved counts as no session.
func RequireAuth(r StateResolver) echo.MiddlewareFunc {
	return guard(r, authgate.Protected)
}

// RedirectAuthenticated sends signed-in visitors away from guest pages such
// as sign-in, honouring a same-site "next" parameter. A session that cannot
// be resolved renders the page.
func RedirectAuthenticated(r StateResolver) echo.MiddlewareFunc {
	return guard(r, authgate.GuestOnly)
}

func guard(r StateResolver, kind authgate.Kind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state, user, err := r.Current(c)
			if err != nil {
				FromContext(c.Request().Context()).Warn("session query failed", "guard", kind.String(), "error", err)
				state, user = authgate.Unauthenticated, nil
			}

			d := authgate.Decide(kind, state, c.Request().URL.RequestURI(), c.QueryParam("next"))
			if d.Action == authgate.Redirect {
				return redirect(c, d.Location)
			}

			c.Set(GuardContextKey, kind)
			if user != nil {
				c.Set(UserContextKey, user)
			}
			return next(c)
		}
	}
}

// redirect uses HX-Redirect for htmx requests so the whole page navigates.
func redirect(c echo.Context, location string) error {
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", location)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, location)
}

// UserFromContext returns the signed-in user set by the guards, if any.
func UserFromContext(c echo.Context) *domain.User {
	user, _ := c.Get(UserContextKey).(*domain.User)
	return user
}

// GuardFromContext returns the guard of the current route. Unguarded routes
// report zero, which prints as "public".
func GuardFromContext(c echo.Context) authgate.Kind {
	kind, _ := c.Get(GuardContextKey).(authgate.Kind)
	return kind
}
