package domain

import (
	"context"
	"io"
)

// SignUpResult is returned by a sign-up. Session is nil when the provider
// requires email confirmation first.
type SignUpResult struct {
	User    User
	Session *Session
}

// AuthProvider is the contract every identity backend satisfies: the hosted
// REST provider, the SurrealDB provider and the in-memory provider.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password, captchaToken string) (*Session, error)
	SignUp(ctx context.Context, email, password, captchaToken string, meta UserMetadata) (*SignUpResult, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*User, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo, captchaToken string) error
	VerifyOTP(ctx context.Context, tokenHash string, otpType OTPType) (*Session, error)
}

// AvatarStore persists avatar images and resolves their public URL.
type AvatarStore interface {
	Upload(ctx context.Context, name string, r io.Reader, contentType string) error
	Remove(ctx context.Context, name string) error
	PublicURL(name string) string
}

// EmailSender defines the interface for sending emails. This allows for
// different implementations (e.g., for logging, Resend, Mailgun).
type EmailSender interface {
	Send(to, subject, htmlBody string) error
}
