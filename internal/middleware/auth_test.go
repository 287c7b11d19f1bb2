package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/domain"
	"github.com/stretchr/testify/assert"
)

type stubResolver struct {
	state authgate.State
	user  *domain.User
	err   error
}

func (s stubResolver) Current(echo.Context) (authgate.State, *domain.User, error) {
	return s.state, s.user, s.err
}

func newGuardedEcho(r StateResolver) *echo.Echo {
	e := echo.New()
	e.GET("/dashboard", func(c echo.Context) error {
		user := UserFromContext(c)
		return c.String(http.StatusOK, "Welcome "+user.Email+" ("+GuardFromContext(c).String()+")")
	}, RequireAuth(r))
	e.GET("/auth/sign-in", func(c echo.Context) error {
		return c.String(http.StatusOK, "Sign in ("+GuardFromContext(c).String()+")")
	}, RedirectAuthenticated(r))
	return e
}

func serve(e *echo.Echo, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	ada := &domain.User{ID: "u-1", Email: "ada@example.com"}

	t.Run("unauthenticated user is redirected to sign in", func(t *testing.T) {
		rec := serve(newGuardedEcho(stubResolver{state: authgate.Unauthenticated}), "/dashboard?tab=2", nil)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/auth/sign-in?next=/dashboard%3Ftab%3D2", rec.Header().Get("Location"))
	})

	t.Run("session error fails closed", func(t *testing.T) {
		rec := serve(newGuardedEcho(stubResolver{state: authgate.Authenticated, user: ada, err: errors.New("boom")}), "/dashboard", nil)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/auth/sign-in?next=/dashboard", rec.Header().Get("Location"))
	})

	t.Run("authenticated user reaches the page", func(t *testing.T) {
		rec := serve(newGuardedEcho(stubResolver{state: authgate.Authenticated, user: ada}), "/dashboard", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Welcome ada@example.com (protected)", rec.Body.String())
	})

	t.Run("htmx requests get HX-Redirect", func(t *testing.T) {
		rec := serve(newGuardedEcho(stubResolver{state: authgate.Unauthenticated}), "/dashboard", map[string]string{"HX-Request": "true"})

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "/auth/sign-in?next=/dashboard", rec.Header().Get("HX-Redirect"))
	})
}

func TestRedirectAuthenticated(t *testing.T) {
	ada := &domain.User{ID: "u-1", Email: "ada@example.com"}

	t.Run("guest sees the page", func(t *testing.T) {
		rec := serve(newGuardedEcho(stubResolver{state: authgate.Unauthenticated}), "/auth/sign-in", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Sign in (guest)", rec.Body.String())
	})

	t.Run("signed in user goes to next", func(t *testing.T) {
		rec := serve(newGuardedEcho(stubResolver{state: authgate.Authenticated, user: ada}), "/auth/sign-in?next=/profile", nil)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/profile", rec.Header().Get("Location"))
	})

	t.Run("foreign next falls back to the dashboard", func(t *testing.T) {
		rec := serve(newGuardedEcho(stubResolver{state: authgate.Authenticated, user: ada}), "/auth/sign-in?next=//evil.example", nil)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})

	t.Run("session error renders the page", func(t *testing.T) {
		rec := serve(newGuardedEcho(stubResolver{err: errors.New("boom")}), "/auth/sign-in", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
