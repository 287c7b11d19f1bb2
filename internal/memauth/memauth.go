// Package memauth is an in-process auth provider for demos and tests. It
// issues the same JWT access tokens as the hosted service and mails confirm
// links through a domain.EmailSender.
package memauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/authtoken"
	"github.com/nfrund/opin/internal/domain"
	"github.com/nfrund/opin/internal/email"
	"golang.org/x/crypto/bcrypt"
)

// Options configures a Provider.
type Options struct {
	// Secret signs access tokens. Required.
	Secret string
	// BaseURL prefixes the confirm links mailed to users.
	BaseURL string
	// AutoConfirm skips email confirmation on sign-up.
	AutoConfirm bool
	// AccessTTL defaults to one hour.
	AccessTTL time.Duration
	// LinkTTL defaults to one day.
	LinkTTL time.Duration
	Mailer  domain.EmailSender
	Now     func() time.Time
}

type account struct {
	user         domain.User
	passwordHash []byte
}

type link struct {
	email   string
	otpType domain.OTPType
	expires time.Time
}

type refresh struct {
	userID    string
	sessionID string
}

// Provider keeps users, sessions and pending links in memory.
type Provider struct {
	opts   Options
	tokens *authtoken.Codec

	mu       sync.Mutex
	accounts map[string]*account // by lower-cased email
	byID     map[string]string   // user id -> email
	refresh  map[string]refresh
	revoked  map[string]bool // session ids
	links    map[string]link // by token hash
}

var _ domain.AuthProvider = (*Provider)(nil)

// New creates an empty provider.
func New(opts Options) *Provider {
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
		opts:     opts,
		tokens:   authtoken.NewCodec(opts.Secret).WithClock(opts.Now),
		accounts: make(map[string]*account),
		byID:     make(map[string]string),
		refresh:  make(map[string]refresh),
		revoked:  make(map[string]bool),
		links:    make(map[string]link),
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser adds a confirmed user directly, bypassing sign-up.
func (p *Provider) CreateUser(email, password string, meta domain.UserMetadata) (domain.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createLocked(email, password, meta, true)
}

func (p *Provider) createLocked(email, password string, meta domain.UserMetadata, confirmed bool) (domain.User, error) {
	key := normalize(email)
	if _, ok := p.accounts[key]; ok {
		return domain.User{}, domain.ErrUserAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{ID: uuid.NewString(), Email: key, Metadata: meta}
	if confirmed {
		now := p.opts.Now().UTC()
		user.ConfirmedAt = &now
	}
	p.accounts[key] = &account{user: user, passwordHash: hash}
	p.byID[user.ID] = key
	return user, nil
}

// SignInWithPassword checks credentials and opens a session.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password, captchaToken string) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[normalize(email)]
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if acct.user.ConfirmedAt == nil {
		return nil, domain.ErrEmailNotConfirmed
	}
	return p.openLocked(acct.user)
}

// SignUp registers a user and mails a confirm link unless AutoConfirm is set.
func (p *Provider) SignUp(ctx context.Context, email, password, captchaToken string, meta domain.UserMetadata) (*domain.SignUpResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	user, err := p.createLocked(email, password, meta, p.opts.AutoConfirm)
	if err != nil {
		return nil, err
	}
	if p.opts.AutoConfirm {
		sess, err := p.openLocked(user)
		if err != nil {
			return nil, err
		}
		return &domain.SignUpResult{User: user, Session: sess}, nil
	}
	if err := p.mailLinkLocked(user.Email, domain.OTPSignup, authgate.DefaultNext); err != nil {
		return nil, err
	}
	return &domain.SignUpResult{User: user}, nil
}

// SignOut revokes the session behind accessToken.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := p.tokens.Parse(accessToken)
	if err != nil {
		return domain.ErrSessionMissing
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.revoked[claims.SessionID] = true
	for token, r := range p.refresh {
		if r.sessionID == claims.SessionID {
			delete(p.refresh, token)
		}
	}
	return nil
}

// GetUser resolves the user behind a live access token.
func (p *Provider) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, domain.ErrSessionMissing
	}
	claims, err := p.tokens.Parse(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.revoked[claims.SessionID] {
		return nil, domain.ErrSessionMissing
	}
	acct, err := p.accountByIDLocked(claims.UserID)
	if err != nil {
		return nil, err
	}
	user := acct.user
	return &user, nil
}

// RefreshSession rotates a refresh token.
func (p *Provider) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.refresh[refreshToken]
	if !ok {
		return nil, domain.ErrSessionMissing
	}
	delete(p.refresh, refreshToken)

	acct, err := p.accountByIDLocked(r.userID)
	if err != nil {
		return nil, err
	}
	return p.issueLocked(acct.user, r.sessionID)
}

// UpdateUser changes the password and/or metadata.
func (p *Provider) UpdateUser(ctx context.Context, accessToken string, attrs domain.UserAttributes) (*domain.User, error) {
	user, err := p.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, err := p.accountByIDLocked(user.ID)
	if err != nil {
		return nil, err
	}
	if attrs.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*attrs.Password), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		acct.passwordHash = hash
	}
	if attrs.Metadata != nil {
		acct.user.Metadata = *attrs.Metadata
	}
	updated := acct.user
	return &updated, nil
}

// ResetPasswordForEmail mails a recovery link. Unknown addresses succeed
// silently so the form cannot be used to probe for accounts.
func (p *Provider) ResetPasswordForEmail(ctx context.Context, email, redirectTo, captchaToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[normalize(email)]
	if !ok {
		slog.Debug("password reset requested for unknown email")
		return nil
	}
	return p.mailLinkLocked(acct.user.Email, domain.OTPRecovery, authgate.DefaultNext)
}

// VerifyOTP redeems a link once and opens a session.
func (p *Provider) VerifyOTP(ctx context.Context, tokenHash string, otpType domain.OTPType) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.links[tokenHash]
	if !ok || l.otpType != otpType || p.opts.Now().After(l.expires) {
		return nil, domain.ErrInvalidOTP
	}
	delete(p.links, tokenHash)

	acct, ok := p.accounts[l.email]
	if !ok {
		return nil, domain.ErrInvalidOTP
	}
	if acct.user.ConfirmedAt == nil {
		now := p.opts.Now().UTC()
		acct.user.ConfirmedAt = &now
	}
	return p.openLocked(acct.user)
}

// IssueLink creates a one-time link for email and returns its token hash.
// It backs invites and lets tests drive the confirm flow.
func (p *Provider) IssueLink(email string, otpType domain.OTPType) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := normalize(email)
	if _, ok := p.accounts[key]; !ok {
		return "", domain.ErrNotFound
	}
	return p.linkLocked(key, otpType), nil
}

func (p *Provider) linkLocked(email string, otpType domain.OTPType) string {
	sum := sha256.Sum256([]byte(uuid.NewString() + email))
	hash := hex.EncodeToString(sum[:])
	p.links[hash] = link{email: email, otpType: otpType, expires: p.opts.Now().Add(p.opts.LinkTTL)}
	return hash
}

func (p *Provider) mailLinkLocked(to string, otpType domain.OTPType, next string) error {
	hash := p.linkLocked(to, otpType)
	if p.opts.Mailer == nil {
		return nil
	}
	return email.SendLink(p.opts.Mailer, to, otpType, authgate.ConfirmURL(p.opts.BaseURL, hash, string(otpType), next))
}

func (p *Provider) accountByIDLocked(id string) (*account, error) {
	key, ok := p.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.accounts[key], nil
}

func (p *Provider) openLocked(user domain.User) (*domain.Session, error) {
	return p.issueLocked(user, uuid.NewString())
}

func (p *Provider) issueLocked(user domain.User, sessionID string) (*domain.Session, error) {
	access, exp, err := p.tokens.Issue(user, sessionID, p.opts.AccessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken := uuid.NewString()
	p.refresh[refreshToken] = refresh{userID: user.ID, sessionID: sessionID}
	delete(p.revoked, sessionID)
	return &domain.Session{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresAt:    exp,
		User:         user,
	}, nil
}
