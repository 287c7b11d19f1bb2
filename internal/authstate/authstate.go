// Package authstate resolves and changes the auth state of a request. Every
// change is published as a domain.AuthEvent so open pages can re-run their
// guards.
package authstate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/domain"
	"github.com/nfrund/opin/internal/pubsub"
	"github.com/nfrund/opin/internal/session"
)

// AuthEvents carries every auth state change.
var AuthEvents = pubsub.NewEvent[domain.AuthEvent]("auth.events", "auth state of a user or browser changed")

// refreshSkew refreshes tokens slightly before they expire.
const refreshSkew = 30 * time.Second

const (
	ctxKeyState = "authstate.state"
	ctxKeyUser  = "authstate.user"
)

// Bus is the event bus the service publishes to and watchers subscribe on.
type Bus = pubsub.Bus

// Service wraps an auth provider and the session store of the request.
type Service struct {
	provider domain.AuthProvider
	store    session.Store
	bus      Bus
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for background failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a Service.
func New(provider domain.AuthProvider, store session.Store, bus Bus, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		store:    store,
		bus:      bus,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider exposes the wrapped provider.
func (s *Service) Provider() domain.AuthProvider {
	return s.provider
}

// sessionGone reports provider errors that mean the stored session is dead.
func sessionGone(err error) bool {
	return errors.Is(err, domain.ErrSessionMissing) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrNotFound)
}

// Current resolves the auth state of the request. It refreshes an expired
// access token and fetches the user from the provider. A provider failure is
// returned as an error together with Unauthenticated; callers decide whether
// to fail closed. The result is cached on the request.
func (s *Service) Current(c echo.Context) (authgate.State, *domain.User, error) {
	if state, ok := c.Get(ctxKeyState).(authgate.State); ok {
		user, _ := c.Get(ctxKeyUser).(*domain.User)
		return state, user, nil
	}

	state, user, err := s.resolve(c)
	if err != nil {
		return authgate.Unauthenticated, nil, err
	}
	c.Set(ctxKeyState, state)
	c.Set(ctxKeyUser, user)
	return state, user, nil
}

func (s *Service) resolve(c echo.Context) (authgate.State, *domain.User, error) {
	ctx := c.Request().Context()

	sess, err := s.store.Load(c)
	if err != nil {
		return authgate.Unauthenticated, nil, err
	}
	if sess == nil {
		return authgate.Unauthenticated, nil, nil
	}

	if sess.Expired(s.now(), refreshSkew) {
		refreshed, err := s.provider.RefreshSession(ctx, sess.RefreshToken)
		if sessionGone(err) {
			s.drop(c)
			return authgate.Unauthenticated, nil, nil
		}
		if err != nil {
			return authgate.Unauthenticated, nil, err
		}
		if err := s.store.Save(c, refreshed); err != nil {
			return authgate.Unauthenticated, nil, err
		}
		s.publish(c, domain.EventTokenRefreshed, refreshed.User.ID)
		sess = refreshed
	}

	user, err := s.provider.GetUser(ctx, sess.AccessToken)
	if sessionGone(err) {
		s.drop(c)
		return authgate.Unauthenticated, nil, nil
	}
	if err != nil {
		return authgate.Unauthenticated, nil, err
	}
	return authgate.Authenticated, user, nil
}

// drop forgets a session the provider no longer knows.
func (s *Service) drop(c echo.Context) {
	if err := s.store.Clear(c); err != nil {
		s.logger.Warn("clear stale session", "error", err)
	}
}

// remember stores a new session and forgets any cached state.
func (s *Service) remember(c echo.Context, sess *domain.Session) error {
	if err := s.store.Save(c, sess); err != nil {
		return err
	}
	c.Set(ctxKeyState, authgate.Authenticated)
	user := sess.User
	c.Set(ctxKeyUser, &user)
	return nil
}

// SignIn checks the credentials and stores the new session.
func (s *Service) SignIn(c echo.Context, email, password, captchaToken string) (*domain.User, error) {
	sess, err := s.provider.SignInWithPassword(c.Request().Context(), email, password, captchaToken)
	if err != nil {
		return nil, err
	}
	if err := s.remember(c, sess); err != nil {
		return nil, err
	}
	s.publish(c, domain.EventSignedIn, sess.User.ID)
	return &sess.User, nil
}

// VerifyPassword checks password against the signed-in user's account. The
// session the check opens at the provider is revoked straight away. The
// stored session is left alone and no event is published.
func (s *Service) VerifyPassword(c echo.Context, password, captchaToken string) error {
	_, user, err := s.Current(c)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrSessionMissing
	}
	ctx := c.Request().Context()
	check, err := s.provider.SignInWithPassword(ctx, user.Email, password, captchaToken)
	if err != nil {
		return err
	}
	if err := s.provider.SignOut(ctx, check.AccessToken); err != nil && !errors.Is(err, domain.ErrSessionMissing) {
		s.logger.Warn("revoke password check session", "user_id", user.ID, "error", err)
	}
	return nil
}

// SignUp registers a user. When the provider opens a session right away it
// is stored like a sign-in.
func (s *Service) SignUp(c echo.Context, email, password, captchaToken string, meta domain.UserMetadata) (*domain.SignUpResult, error) {
	res, err := s.provider.SignUp(c.Request().Context(), email, password, captchaToken, meta)
	if err != nil {
		return nil, err
	}
	if res.Session != nil {
		if err := s.remember(c, res.Session); err != nil {
			return nil, err
		}
		s.publish(c, domain.EventSignedIn, res.User.ID)
	}
	return res, nil
}

// SignOut revokes the session at the provider and clears it locally. The
// local session is cleared even when the provider call fails.
func (s *Service) SignOut(c echo.Context) error {
	sess, err := s.store.Load(c)
	if err != nil {
		return err
	}
	var providerErr error
	userID := ""
	if sess != nil {
		userID = sess.User.ID
		providerErr = s.provider.SignOut(c.Request().Context(), sess.AccessToken)
		if errors.Is(providerErr, domain.ErrSessionMissing) {
			providerErr = nil
		}
	}
	if err := s.store.Clear(c); err != nil {
		return err
	}
	c.Set(ctxKeyState, authgate.Unauthenticated)
	c.Set(ctxKeyUser, (*domain.User)(nil))
	s.publish(c, domain.EventSignedOut, userID)
	return providerErr
}

// AccessToken returns the token of a live session.
func (s *Service) AccessToken(c echo.Context) (string, error) {
	if _, _, err := s.Current(c); err != nil {
		return "", err
	}
	sess, err := s.store.Load(c)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", domain.ErrSessionMissing
	}
	return sess.AccessToken, nil
}

// update applies attrs and keeps the stored copy of the user current.
func (s *Service) update(c echo.Context, attrs domain.UserAttributes) (*domain.User, error) {
	token, err := s.AccessToken(c)
	if err != nil {
		return nil, err
	}
	user, err := s.provider.UpdateUser(c.Request().Context(), token, attrs)
	if err != nil {
		return nil, err
	}
	if sess, err := s.store.Load(c); err == nil && sess != nil {
		sess.User = *user
		if err := s.remember(c, sess); err != nil {
			s.logger.Warn("store updated user", "error", err)
		}
	}
	s.publish(c, domain.EventUserUpdated, user.ID)
	return user, nil
}

// UpdatePassword sets a new password for the signed-in user.
func (s *Service) UpdatePassword(c echo.Context, password string) error {
	_, err := s.update(c, domain.UserAttributes{Password: &password})
	return err
}

// UpdateProfile replaces the profile metadata of the signed-in user.
func (s *Service) UpdateProfile(c echo.Context, meta domain.UserMetadata) (*domain.User, error) {
	return s.update(c, domain.UserAttributes{Metadata: &meta})
}

// VerifyOTP redeems an emailed link. A recovery link publishes
// PASSWORD_RECOVERY, every other type SIGNED_IN.
func (s *Service) VerifyOTP(c echo.Context, tokenHash string, otpType domain.OTPType) error {
	sess, err := s.provider.VerifyOTP(c.Request().Context(), tokenHash, otpType)
	if err != nil {
		return err
	}
	if err := s.remember(c, sess); err != nil {
		return err
	}
	event := domain.EventSignedIn
	if otpType == domain.OTPRecovery {
		event = domain.EventPasswordRecovery
	}
	s.publish(c, event, sess.User.ID)
	return nil
}

// RequestPasswordReset mails a recovery link to email.
func (s *Service) RequestPasswordReset(c echo.Context, email, redirectTo, captchaToken string) error {
	return s.provider.ResetPasswordForEmail(c.Request().Context(), email, redirectTo, captchaToken)
}

func (s *Service) publish(c echo.Context, t domain.AuthEventType, userID string) {
	event := domain.AuthEvent{
		Type:       t,
		UserID:     userID,
		BrowserID:  session.PeekBrowserID(c),
		OccurredAt: s.now().UTC(),
	}
	if err := pubsub.Publish(c.Request().Context(), s.bus, AuthEvents, userID, event); err != nil {
		s.logger.Error("publish auth event", "type", t, "user_id", userID, "error", err)
	}
}

// Watch delivers the events of a user or a browser until ctx is done. The
// channel holds only the latest event: a slow reader sees the last state, not
// every transition, and events older than one already delivered are dropped.
// It is never closed, so readers must also watch ctx.
func (s *Service) Watch(ctx context.Context, userID, browserID string) (<-chan domain.AuthEvent, error) {
	out := make(chan domain.AuthEvent, 1)
	var latest time.Time
	err := pubsub.Subscribe(ctx, s.bus, AuthEvents, func(_ context.Context, _ string, ev domain.AuthEvent) error {
		if !matches(ev, userID, browserID) || ev.OccurredAt.Before(latest) {
			return nil
		}
		latest = ev.OccurredAt
		for {
			select {
			case out <- ev:
				return nil
			default:
			}
			// Drop the stale value and try again.
			select {
			case <-out:
			default:
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matches(ev domain.AuthEvent, userID, browserID string) bool {
	if userID != "" && ev.UserID == userID {
		return true
	}
	return browserID != "" && ev.BrowserID == browserID
}
