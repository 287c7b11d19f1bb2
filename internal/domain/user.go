package domain

import (
	"strings"
	"time"
)

// UserMetadata is the profile data the auth provider stores next to a user.
type UserMetadata struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// User is the read-only copy of the provider's user record.
type User struct {
	ID          string       `json:"id"`
	Email       string       `json:"email"`
	ConfirmedAt *time.Time   `json:"confirmed_at,omitempty"`
	Metadata    UserMetadata `json:"user_metadata"`
}

// DisplayName prefers the profile name and falls back to the email address.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.Metadata.FirstName + " " + u.Metadata.LastName)
	if name != "" {
		return name
	}
	return u.Email
}

// Session is a provider-issued credential. A session always carries its user.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry, allowing for
// clock skew.
func (s *Session) Expired(now time.Time, skew time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(s.ExpiresAt)
}

// UserAttributes are the mutable fields of a user. Nil fields are left untouched.
type UserAttributes struct {
	Password *string
	Metadata *UserMetadata
}

// OTPType names the purpose of an emailed one-time link.
type OTPType string

const (
	OTPSignup      OTPType = "signup"
	OTPInvite      OTPType = "invite"
	OTPMagicLink   OTPType = "magiclink"
	OTPRecovery    OTPType = "recovery"
	OTPEmailChange OTPType = "email_change"
	OTPEmail       OTPType = "email"
)

// Valid reports whether t is one of the known link types.
func (t OTPType) Valid() bool {
	switch t {
	case OTPSignup, OTPInvite, OTPMagicLink, OTPRecovery, OTPEmailChange, OTPEmail:
		return true
	}
	return false
}
