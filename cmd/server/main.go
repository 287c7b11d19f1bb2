package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nfrund/opin/internal/app"
	"github.com/nfrund/opin/internal/authclient"
	"github.com/nfrund/opin/internal/authstate"
	"github.com/nfrund/opin/internal/authtoken"
	"github.com/nfrund/opin/internal/avatar"
	"github.com/nfrund/opin/internal/captcha"
	"github.com/nfrund/opin/internal/config"
	"github.com/nfrund/opin/internal/database"
	"github.com/nfrund/opin/internal/domain"
	"github.com/nfrund/opin/internal/email"
	"github.com/nfrund/opin/internal/localauth"
	"github.com/nfrund/opin/internal/logging"
	"github.com/nfrund/opin/internal/memauth"
	"github.com/nfrund/opin/internal/middleware"
	"github.com/nfrund/opin/internal/pubsub"
	"github.com/nfrund/opin/internal/registry"
	"github.com/nfrund/opin/internal/server"
	"github.com/nfrund/opin/internal/session"
	"github.com/nfrund/opin/internal/storage"
	"github.com/spf13/afero"
)

func main() {
	logger := logging.New()
	if err := run(); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

// backend is the provider-specific part of the wiring.
type backend struct {
	provider domain.AuthProvider
	verifier captcha.Verifier
	store    domain.AvatarStore
	files    *storage.AferoStore
	health   func(ctx context.Context) error
	closers  []func() error
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	mailer, err := email.NewEmailService(cfg)
	if err != nil {
		return fmt.Errorf("email service: %w", err)
	}

	b, err := newBackend(cfg, mailer)
	if err != nil {
		return err
	}

	store, closeStore, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	if closeStore != nil {
		b.closers = append(b.closers, closeStore)
	}

	bus := pubsub.NewWatermillBridge()
	b.closers = append(b.closers, bus.Close)

	auth := authstate.New(b.provider, store, bus, authstate.WithLogger(slog.Default()))

	s, err := server.New(server.Dependencies{
		Config:   cfg,
		Auth:     auth,
		Sessions: session.NewCookieBackend(cfg.GetSessionSecret(), strings.HasPrefix(cfg.GetAppBaseURL(), "https://")),
		Verifier: b.verifier,
		Avatars:  b.files,
		Health:   b.health,
	})
	if err != nil {
		return err
	}
	for _, fn := range b.closers {
		s.OnShutdown(fn)
	}
	s.RegisterRoutes()

	modules := app.NewModules(app.Dependencies{
		Auth:     auth,
		Avatars:  avatar.NewService(b.store),
		Verifier: s.Verifier,
		SiteKey:  cfg.GetTurnstileSiteKey(),
		Guard:    middleware.RequireAuth(auth),
	})
	if err := s.InitModules(context.Background(), modules, registry.New(cfg)); err != nil {
		return fmt.Errorf("init modules: %w", err)
	}

	return s.Start()
}

// newBackend selects the auth provider named by AUTH_PROVIDER together with
// the avatar storage and captcha verification that go with it.
func newBackend(cfg config.Provider, mailer domain.EmailSender) (*backend, error) {
	b := &backend{}

	switch cfg.GetAuthProvider() {
	case config.ProviderHosted:
		client := authclient.New(cfg.GetAuthURL(), cfg.GetAuthAnonKey(), cfg.GetAuthTimeout(),
			authclient.WithTokenCodec(authtoken.NewCodec(cfg.GetAuthJWTSecret())))
		b.provider = client
		b.store = client.Bucket(cfg.GetStorageBucket())
		// The hosted service checks challenge tokens itself.
		b.verifier = captcha.Forwarder{}
		slog.Info("Using hosted auth provider", "url", cfg.GetAuthURL())
		return b, nil

	case config.ProviderSurreal:
		conn := database.NewConnection(cfg)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := conn.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		conn.StartMonitoring()

		provider := localauth.New(conn, localauth.Options{
			Secret:  authSecret(cfg),
			BaseURL: cfg.GetAppBaseURL(),
			Mailer:  mailer,
		})
		if err := provider.Migrate(ctx); err != nil {
			_ = conn.Close(context.Background())
			return nil, fmt.Errorf("migrate auth schema: %w", err)
		}
		b.provider = provider
		b.health = conn.Ping
		b.closers = append(b.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return conn.Close(ctx)
		})
		slog.Info("Using SurrealDB auth provider")

	case config.ProviderMemory:
		b.provider = memauth.New(memauth.Options{
			Secret:  authSecret(cfg),
			BaseURL: cfg.GetAppBaseURL(),
			Mailer:  mailer,
		})
		slog.Warn("Using in-memory auth provider; accounts are lost on restart")

	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.GetAuthProvider())
	}

	b.verifier = captcha.Forwarder{}
	if secret := cfg.GetTurnstileSecretKey(); secret != "" {
		b.verifier = captcha.NewTurnstileVerifier(secret, "", nil)
	}
	b.files = storage.NewAferoStore(afero.NewOsFs(), cfg.GetAvatarDir(), "/avatars")
	b.store = b.files
	return b, nil
}

func authSecret(cfg config.Provider) string {
	if s := cfg.GetAuthJWTSecret(); s != "" {
		return s
	}
	return cfg.GetSessionSecret()
}

// newSessionStore returns the auth session store and, for Redis, a function
// closing its client.
func newSessionStore(cfg config.Provider) (session.Store, func() error, error) {
	switch cfg.GetSessionBackend() {
	case config.SessionRedis:
		client, err := session.NewRedisClient(cfg.GetRedisAddr(), cfg.GetRedisPassword(), cfg.GetRedisDB())
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using Redis session store", "addr", cfg.GetRedisAddr())
		return session.NewRedisStore(client), client.Close, nil
	default:
		return session.NewCookieStore(), nil, nil
	}
}
