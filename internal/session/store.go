// Package session persists the provider session of a browser between requests.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/domain"
)

const (
	// CookieName is the gorilla session that carries the auth state.
	CookieName = "opin-auth"
	// MaxAge bounds how long a browser stays signed in without activity.
	MaxAge = 7 * 24 * time.Hour

	valueKey = "session"
)

// Store loads and saves the auth session of the current request.
type Store interface {
	// Load returns nil, nil when the browser has no session.
	Load(c echo.Context) (*domain.Session, error)
	Save(c echo.Context, s *domain.Session) error
	Clear(c echo.Context) error
}

// NewCookieBackend returns the gorilla cookie store used by both backends and
// by flash messages. It must be installed with session.Middleware.
func NewCookieBackend(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CookieStore keeps the whole session in a signed cookie.
type CookieStore struct{}

// NewCookieStore creates a cookie-backed Store.
func NewCookieStore() *CookieStore {
	return &CookieStore{}
}

// Load implements Store.
func (s *CookieStore) Load(c echo.Context) (*domain.Session, error) {
	sess, err := session.Get(CookieName, c)
	if err != nil {
		// A cookie signed with an old secret is treated as no session.
		return nil, nil
	}
	raw, ok := sess.Values[valueKey].(string)
	if !ok || raw == "" {
		return nil, nil
	}
	var out domain.Session
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return &out, nil
}

// Save implements Store.
func (s *CookieStore) Save(c echo.Context, in *domain.Session) error {
	if in == nil || in.AccessToken == "" {
		return errors.New("session: refusing to save an empty session")
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	sess, _ := session.Get(CookieName, c)
	sess.Values[valueKey] = string(data)
	return sess.Save(c.Request(), c.Response())
}

// Clear implements Store.
func (s *CookieStore) Clear(c echo.Context) error {
	sess, _ := session.Get(CookieName, c)
	delete(sess.Values, valueKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
