package authstate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/domain"
	"github.com/nfrund/opin/internal/memauth"
	"github.com/nfrund/opin/internal/pubsub"
	"github.com/nfrund/opin/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-very-secret-key-for-testing-!"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc      *Service
	provider *memauth.Provider
	clock    *clock
	cookies  []*http.Cookie
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	provider := memauth.New(memauth.Options{Secret: testSecret, Now: clk.Now})
	_, err := provider.CreateUser("ada@example.com", "Secret1!", domain.UserMetadata{FirstName: "Ada"})
	require.NoError(t, err)

	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { _ = bus.Close() })

	return &fixture{
		svc:      New(provider, session.NewCookieStore(), bus, WithClock(clk.Now)),
		provider: provider,
		clock:    clk,
	}
}

// do runs fn as one request carrying the cookies of earlier requests.
func (f *fixture) do(t *testing.T, fn func(c echo.Context) error) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range f.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	mw := echosession.Middleware(session.NewCookieBackend(testSecret, false))
	err := mw(fn)(e.NewContext(req, rec))

	jar := map[string]*http.Cookie{}
	for _, ck := range f.cookies {
		jar[ck.Name] = ck
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(jar, ck.Name)
			continue
		}
		jar[ck.Name] = ck
	}
	f.cookies = f.cookies[:0]
	for _, ck := range jar {
		f.cookies = append(f.cookies, ck)
	}
	return err
}

func (f *fixture) state(t *testing.T) (authgate.State, *domain.User) {
	t.Helper()
	var (
		state authgate.State
		user  *domain.User
	)
	require.NoError(t, f.do(t, func(c echo.Context) error {
		var err error
		state, user, err = f.svc.Current(c)
		return err
	}))
	return state, user
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, f.do(t, func(c echo.Context) error {
		_, err := f.svc.SignIn(c, "ada@example.com", "Secret1!", "")
		return err
	}))
}

func receive(t *testing.T, ch <-chan domain.AuthEvent, want domain.AuthEventType) domain.AuthEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event received", want)
		}
	}
}

func TestCurrent(t *testing.T) {
	t.Run("no session is unauthenticated", func(t *testing.T) {
		f := newFixture(t)
		state, user := f.state(t)
		assert.Equal(t, authgate.Unauthenticated, state)
		assert.Nil(t, user)
	})

	t.Run("signed in session is authenticated", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)

		state, user := f.state(t)
		assert.Equal(t, authgate.Authenticated, state)
		require.NotNil(t, user)
		assert.Equal(t, "ada@example.com", user.Email)
	})

	t.Run("expired token is refreshed", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)

		var userID string
		_, user := f.state(t)
		require.NotNil(t, user)
		userID = user.ID

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events, err := f.svc.Watch(ctx, userID, "")
		require.NoError(t, err)

		f.clock.Advance(2 * time.Hour)
		state, user := f.state(t)
		assert.Equal(t, authgate.Authenticated, state)
		require.NotNil(t, user)

		receive(t, events, domain.EventTokenRefreshed)
	})

	t.Run("revoked session is dropped", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)

		// Sign out through the provider only, as another device would.
		require.NoError(t, f.do(t, func(c echo.Context) error {
			sess, err := f.svc.store.Load(c)
			require.NoError(t, err)
			return f.provider.SignOut(c.Request().Context(), sess.AccessToken)
		}))

		state, _ := f.state(t)
		assert.Equal(t, authgate.Unauthenticated, state)
	})

	t.Run("provider failure is returned", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)
		f.svc.provider = failingProvider{f.provider}

		err := f.do(t, func(c echo.Context) error {
			state, user, err := f.svc.Current(c)
			assert.Equal(t, authgate.Unauthenticated, state)
			assert.Nil(t, user)
			return err
		})
		assert.ErrorIs(t, err, errUnavailable)
	})
}

var errUnavailable = errors.New("provider unavailable")

type failingProvider struct {
	domain.AuthProvider
}

func (failingProvider) GetUser(context.Context, string) (*domain.User, error) {
	return nil, errUnavailable
}

func TestSignInAndOut(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var browserID string
	require.NoError(t, f.do(t, func(c echo.Context) error {
		browserID = session.BrowserID(c)
		return nil
	}))
	events, err := f.svc.Watch(ctx, "", browserID)
	require.NoError(t, err)

	f.signIn(t)
	ev := receive(t, events, domain.EventSignedIn)
	assert.Equal(t, browserID, ev.BrowserID)
	assert.True(t, ev.SignedIn())

	f.clock.Advance(time.Second)
	require.NoError(t, f.do(t, func(c echo.Context) error {
		return f.svc.SignOut(c)
	}))
	ev = receive(t, events, domain.EventSignedOut)
	assert.False(t, ev.SignedIn())

	state, _ := f.state(t)
	assert.Equal(t, authgate.Unauthenticated, state)
}

func TestSignInFailure(t *testing.T) {
	f := newFixture(t)
	err := f.do(t, func(c echo.Context) error {
		_, err := f.svc.SignIn(c, "ada@example.com", "wrong", "")
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	state, _ := f.state(t)
	assert.Equal(t, authgate.Unauthenticated, state)
}

// issuingProvider remembers every access token it hands out.
type issuingProvider struct {
	*memauth.Provider
	issued []string
}

func (p *issuingProvider) SignInWithPassword(ctx context.Context, email, password, captchaToken string) (*domain.Session, error) {
	sess, err := p.Provider.SignInWithPassword(ctx, email, password, captchaToken)
	if err == nil {
		p.issued = append(p.issued, sess.AccessToken)
	}
	return sess, err
}

func TestVerifyPassword(t *testing.T) {
	f := newFixture(t)
	provider := &issuingProvider{Provider: f.provider}
	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { _ = bus.Close() })
	f.svc = New(provider, session.NewCookieStore(), bus, WithClock(f.clock.Now))

	f.signIn(t)
	_, user := f.state(t)
	require.NotNil(t, user)
	require.Len(t, provider.issued, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := f.svc.Watch(ctx, user.ID, "")
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		require.NoError(t, f.do(t, func(c echo.Context) error {
			return f.svc.VerifyPassword(c, "Secret1!", "")
		}))
		require.Len(t, provider.issued, 2)

		_, err := f.provider.GetUser(context.Background(), provider.issued[1])
		assert.ErrorIs(t, err, domain.ErrSessionMissing, "the checking session is revoked")
		_, err = f.provider.GetUser(context.Background(), provider.issued[0])
		assert.NoError(t, err, "the stored session stays live")

		state, current := f.state(t)
		assert.Equal(t, authgate.Authenticated, state)
		assert.Equal(t, user.ID, current.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		err := f.do(t, func(c echo.Context) error {
			return f.svc.VerifyPassword(c, "wrong", "")
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("publishes nothing", func(t *testing.T) {
		select {
		case ev := <-events:
			t.Fatalf("unexpected %s event", ev.Type)
		case <-time.After(200 * time.Millisecond):
		}
	})

	t.Run("requires a session", func(t *testing.T) {
		anon := newFixture(t)
		err := anon.do(t, func(c echo.Context) error {
			return anon.svc.VerifyPassword(c, "Secret1!", "")
		})
		assert.ErrorIs(t, err, domain.ErrSessionMissing)
	})
}

func TestUpdateProfileAndPassword(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	require.NoError(t, f.do(t, func(c echo.Context) error {
		user, err := f.svc.UpdateProfile(c, domain.UserMetadata{FirstName: "Grace", LastName: "Hopper"})
		if err != nil {
			return err
		}
		assert.Equal(t, "Grace Hopper", user.DisplayName())
		return f.svc.UpdatePassword(c, "NewSecret1!")
	}))

	_, user := f.state(t)
	require.NotNil(t, user)
	assert.Equal(t, "Grace", user.Metadata.FirstName)

	require.NoError(t, f.do(t, func(c echo.Context) error { return f.svc.SignOut(c) }))
	require.NoError(t, f.do(t, func(c echo.Context) error {
		_, err := f.svc.SignIn(c, "ada@example.com", "NewSecret1!", "")
		return err
	}))
}

func TestUpdateWithoutSession(t *testing.T) {
	f := newFixture(t)
	err := f.do(t, func(c echo.Context) error {
		return f.svc.UpdatePassword(c, "NewSecret1!")
	})
	assert.ErrorIs(t, err, domain.ErrSessionMissing)
}

func TestVerifyOTP(t *testing.T) {
	f := newFixture(t)
	hash, err := f.provider.IssueLink("ada@example.com", domain.OTPRecovery)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, user := f.state(t)
	assert.Nil(t, user)

	var userID string
	require.NoError(t, f.do(t, func(c echo.Context) error {
		if err := f.svc.VerifyOTP(c, hash, domain.OTPRecovery); err != nil {
			return err
		}
		_, u, err := f.svc.Current(c)
		userID = u.ID
		return err
	}))
	events, err := f.svc.Watch(ctx, userID, "")
	require.NoError(t, err)

	state, _ := f.state(t)
	assert.Equal(t, authgate.Authenticated, state)

	t.Run("links are single use", func(t *testing.T) {
		err := f.do(t, func(c echo.Context) error {
			return f.svc.VerifyOTP(c, hash, domain.OTPRecovery)
		})
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	})

	f.clock.Advance(time.Second)
	require.NoError(t, f.do(t, func(c echo.Context) error { return f.svc.SignOut(c) }))
	receive(t, events, domain.EventSignedOut)
}

func TestWatchKeepsLatest(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := f.svc.Watch(ctx, "u-1", "")
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	publish := func(t *testing.T, typ domain.AuthEventType, userID string, at time.Time) {
		require.NoError(t, pubsub.Publish(ctx, f.svc.bus, AuthEvents, userID, domain.AuthEvent{
			Type: typ, UserID: userID, OccurredAt: at,
		}))
	}

	publish(t, domain.EventSignedIn, "someone-else", base)
	publish(t, domain.EventSignedIn, "u-1", base)
	publish(t, domain.EventSignedOut, "u-1", base.Add(time.Second))

	assert.Eventually(t, func() bool {
		select {
		case ev := <-events:
			return ev.Type == domain.EventSignedOut
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMatches(t *testing.T) {
	ev := domain.AuthEvent{UserID: "u-1", BrowserID: "b-1"}
	assert.True(t, matches(ev, "u-1", ""))
	assert.True(t, matches(ev, "", "b-1"))
	assert.False(t, matches(ev, "", ""))
	assert.False(t, matches(domain.AuthEvent{}, "", ""))
	assert.False(t, matches(ev, "u-2", "b-2"))
}
