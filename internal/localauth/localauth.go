// Package localauth is a self-hosted auth provider backed by SurrealDB, used
// for offline development against the same flows as the hosted service.
package localauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/authtoken"
	"github.com/nfrund/opin/internal/database"
	"github.com/nfrund/opin/internal/domain"
	"github.com/nfrund/opin/internal/email"
	"github.com/surrealdb/surrealdb.go"
)

type accountRow struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	AvatarURL   string `json:"avatar_url"`
	ConfirmedAt string `json:"confirmed_at"`
}

func (r accountRow) user() domain.User {
	u := domain.User{
		ID:    r.UID,
		Email: r.Email,
		Metadata: domain.UserMetadata{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			AvatarURL: r.AvatarURL,
		},
	}
	if t, err := time.Parse(time.RFC3339, r.ConfirmedAt); err == nil {
		u.ConfirmedAt = &t
	}
	return u
}

type linkRow struct {
	TokenHash string `json:"token_hash"`
	Email     string `json:"email"`
	Type      string `json:"type"`
	Expires   string `json:"expires"`
}

type refreshRow struct {
	Token string `json:"token"`
	UID   string `json:"uid"`
	SID   string `json:"sid"`
}

type sidRow struct {
	SID string `json:"sid"`
}

// Options configures a Provider.
type Options struct {
	Secret      string
	BaseURL     string
	AutoConfirm bool
	AccessTTL   time.Duration
	LinkTTL     time.Duration
	Mailer      domain.EmailSender
	Now         func() time.Time
}

// Provider implements domain.AuthProvider on a managed SurrealDB connection.
type Provider struct {
	conn   *database.Connection
	opts   Options
	tokens *authtoken.Codec
}

var _ domain.AuthProvider = (*Provider)(nil)

// New creates a provider on an already connected database.
func New(conn *database.Connection, opts Options) *Provider {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = time.Hour
	}
	if opts.LinkTTL <= 0 {
		opts.LinkTTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provider{
		conn:   conn,
		opts:   opts,
		tokens: authtoken.NewCodec(opts.Secret).WithClock(opts.Now),
	}
}

// Migrate defines the tables and indexes the provider relies on.
func (p *Provider) Migrate(ctx context.Context) error {
	return p.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		if err := database.Execute(ctx, db, schema, nil); err != nil {
			return fmt.Errorf("apply auth schema: %w", err)
		}
		return nil
	})
}

func normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

func (p *Provider) timestamp() string {
	return p.opts.Now().UTC().Format(time.RFC3339)
}

// SignInWithPassword checks credentials inside the database.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password, captchaToken string) (*domain.Session, error) {
	var row *accountRow
	err := p.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		row, err = database.QueryOne[accountRow](ctx, db, qCheckPassword, map[string]any{
			"email":    normalize(email),
			"password": password,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if row == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if row.ConfirmedAt == "" {
		return nil, domain.ErrEmailNotConfirmed
	}
	return p.open(ctx, row.user(), uuid.NewString())
}

// SignUp creates the account and mails a confirm link unless AutoConfirm is set.
func (p *Provider) SignUp(ctx context.Context, email, password, captchaToken string, meta domain.UserMetadata) (*domain.SignUpResult, error) {
	addr := normalize(email)
	confirmedAt := ""
	if p.opts.AutoConfirm {
		confirmedAt = p.timestamp()
	}

	var row *accountRow
	err := p.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		existing, err := database.QueryOne[accountRow](ctx, db, qAccountByEmail, map[string]any{"email": addr})
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrUserAlreadyExists
		}
		uid := uuid.NewString()
		if err := database.Execute(ctx, db, qCreateAccount, map[string]any{
			"uid":          uid,
			"email":        addr,
			"password":     password,
			"first_name":   meta.FirstName,
			"last_name":    meta.LastName,
			"confirmed_at": confirmedAt,
		}); err != nil {
			if strings.Contains(err.Error(), "already contains") {
				return domain.ErrUserAlreadyExists
			}
			return err
		}
		row, err = database.QueryOne[accountRow](ctx, db, qAccountByUID, map[string]any{"uid": uid})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("sign up: account was not stored")
	}

	user := row.user()
	if p.opts.AutoConfirm {
		sess, err := p.open(ctx, user, uuid.NewString())
		if err != nil {
			return nil, err
		}
		return &domain.SignUpResult{User: user, Session: sess}, nil
	}
	if err := p.mailLink(ctx, addr, domain.OTPSignup); err != nil {
		return nil, err
	}
	return &domain.SignUpResult{User: user}, nil
}

// SignOut revokes the session and its refresh tokens.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := p.tokens.Parse(accessToken)
	if err != nil {
		return domain.ErrSessionMissing
	}
	return p.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		return database.Execute(ctx, db, qRevoke, map[string]any{"sid": claims.SessionID})
	})
}

// GetUser resolves the account behind a live access token.
func (p *Provider) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, domain.ErrSessionMissing
	}
	claims, err := p.tokens.Parse(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	var row *accountRow
	err = p.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		revoked, err := database.QueryOne[sidRow](ctx, db, qIsRevoked, map[string]any{"sid": claims.SessionID})
		if err != nil {
			return err
		}
		if revoked != nil {
			return domain.ErrSessionMissing
		}
		row, err = database.QueryOne[accountRow](ctx, db, qAccountByUID, map[string]any{"uid": claims.UserID})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	user := row.user()
	return &user, nil
}

// RefreshSession rotates a refresh token.
func (p *Provider) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, domain.ErrSessionMissing
	}
	var (
		taken []refreshRow
		row   *accountRow
	)
	err := p.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		taken, err = database.Query[refreshRow](ctx, db, qTakeRefresh, map[string]any{"token": refreshToken})
		if err != nil || len(taken) == 0 {
			return err
		}
		row, err = database.QueryOne[accountRow](ctx, db, qAccountByUID, map[string]any{"uid": taken[0].UID})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if len(taken) == 0 || row == nil {
		return nil, domain.ErrSessionMissing
	}
	return p.open(ctx, row.user(), taken[0].SID)
}

// UpdateUser changes the password and/or metadata.
func (p *Provider) UpdateUser(ctx context.Context, accessToken string, attrs domain.UserAttributes) (*domain.User, error) {
	current, err := p.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var row *accountRow
	err = p.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		if attrs.Password != nil {
			if err := database.Execute(ctx, db, qSetPassword, map[string]any{"uid": current.ID, "password": *attrs.Password}); err != nil {
				return err
			}
		}
		if attrs.Metadata != nil {
			if err := database.Execute(ctx, db, qSetMetadata, map[string]any{
				"uid":        current.ID,
				"first_name": attrs.Metadata.FirstName,
				"last_name":  attrs.Metadata.LastName,
				"avatar_url": attrs.Metadata.AvatarURL,
			}); err != nil {
				return err
			}
		}
		var err error
		row, err = database.QueryOne[accountRow](ctx, db, qAccountByUID, map[string]any{"uid": current.ID})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	user := row.user()
	return &user, nil
}

// ResetPasswordForEmail mails a recovery link. Unknown addresses succeed
// silently.
func (p *Provider) ResetPasswordForEmail(ctx context.Context, email, redirectTo, captchaToken string) error {
	addr := normalize(email)
	var row *accountRow
	err := p.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		row, err = database.QueryOne[accountRow](ctx, db, qAccountByEmail, map[string]any{"email": addr})
		return err
	})
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if row == nil {
		slog.DebugContext(ctx, "password reset requested for unknown email")
		return nil
	}
	return p.mailLink(ctx, addr, domain.OTPRecovery)
}

// VerifyOTP redeems a link once and opens a session.
func (p *Provider) VerifyOTP(ctx context.Context, tokenHash string, otpType domain.OTPType) (*domain.Session, error) {
	var row *accountRow
	err := p.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		links, err := database.Query[linkRow](ctx, db, qTakeLink, map[string]any{
			"token_hash": tokenHash,
			"type":       string(otpType),
		})
		if err != nil {
			return err
		}
		if len(links) == 0 {
			return domain.ErrInvalidOTP
		}
		expires, err := time.Parse(time.RFC3339, links[0].Expires)
		if err != nil || p.opts.Now().After(expires) {
			return domain.ErrInvalidOTP
		}
		row, err = database.QueryOne[accountRow](ctx, db, qAccountByEmail, map[string]any{"email": links[0].Email})
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrInvalidOTP
		}
		if row.ConfirmedAt == "" {
			row.ConfirmedAt = p.timestamp()
			return database.Execute(ctx, db, qConfirm, map[string]any{"uid": row.UID, "confirmed_at": row.ConfirmedAt})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOTP) {
			return nil, err
		}
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	return p.open(ctx, row.user(), uuid.NewString())
}

// IssueLink stores a one-time link for an existing account and returns its
// token hash.
func (p *Provider) IssueLink(ctx context.Context, addr string, otpType domain.OTPType) (string, error) {
	sum := sha256.Sum256([]byte(uuid.NewString() + addr))
	hash := hex.EncodeToString(sum[:])
	err := p.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		return database.Execute(ctx, db, qCreateLink, map[string]any{
			"token_hash": hash,
			"email":      normalize(addr),
			"type":       string(otpType),
			"expires":    p.opts.Now().Add(p.opts.LinkTTL).UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return "", fmt.Errorf("issue link: %w", err)
	}
	return hash, nil
}

func (p *Provider) mailLink(ctx context.Context, addr string, otpType domain.OTPType) error {
	hash, err := p.IssueLink(ctx, addr, otpType)
	if err != nil {
		return err
	}
	if p.opts.Mailer == nil {
		return nil
	}
	link := authgate.ConfirmURL(p.opts.BaseURL, hash, string(otpType), authgate.DefaultNext)
	return email.SendLink(p.opts.Mailer, addr, otpType, link)
}

func (p *Provider) open(ctx context.Context, user domain.User, sessionID string) (*domain.Session, error) {
	access, exp, err := p.tokens.Issue(user, sessionID, p.opts.AccessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken := uuid.NewString()
	err = p.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		if err := database.Execute(ctx, db, qUnrevoke, map[string]any{"sid": sessionID}); err != nil {
			return err
		}
		return database.Execute(ctx, db, qCreateRefresh, map[string]any{
			"token": refreshToken,
			"uid":   user.ID,
			"sid":   sessionID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &domain.Session{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresAt:    exp,
		User:         user,
	}, nil
}
