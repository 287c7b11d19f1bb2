// Package authtoken issues and reads the JWT access tokens that carry a
// session's identity.
package authtoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nfrund/opin/internal/domain"
)

// Claims are the access token claims the application relies on.
type Claims struct {
	UserID    string
	Email     string
	Role      string
	SessionID string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ErrInvalidToken is returned for malformed, forged or expired tokens.
var ErrInvalidToken = errors.New("invalid access token")

// Codec signs and verifies HS256 access tokens. A codec without a secret can
// only read claims and never verifies signatures.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec creates a codec. An empty secret yields a read-only codec.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Verifies reports whether the codec checks signatures.
func (c *Codec) Verifies() bool {
	return len(c.secret) > 0
}

// Issue signs an access token for user that expires after ttl.
func (c *Codec) Issue(user domain.User, sessionID string, ttl time.Duration) (string, time.Time, error) {
	if !c.Verifies() {
		return "", time.Time{}, errors.New("authtoken: cannot issue tokens without a secret")
	}
	now := c.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email:     user.Email,
		Role:      "authenticated",
		SessionID: sessionID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// Parse reads the claims of token. Signatures and expiry are enforced only
// when the codec has a secret.
func (c *Codec) Parse(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrInvalidToken
	}

	var parsed accessClaims
	if c.Verifies() {
		_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
			return c.secret, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(c.now),
			jwt.WithExpirationRequired(),
		)
		if err != nil {
			return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, &parsed); err != nil {
			return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	}

	if parsed.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := Claims{
		UserID:    parsed.Subject,
		Email:     parsed.Email,
		Role:      parsed.Role,
		SessionID: parsed.SessionID,
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time.UTC()
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}
