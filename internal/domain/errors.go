package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for common auth failures regardless of which provider produced them.
var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUserAlreadyExists  = errors.New("user already registered")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrSessionMissing     = errors.New("auth session missing")
	ErrInvalidOTP         = errors.New("email link is invalid or has expired")
	ErrRateLimited        = errors.New("too many requests")
	ErrCaptchaFailed      = errors.New("captcha verification failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("requested resource not found")
	ErrWeakPassword       = errors.New("password is too weak")
)

// ProviderError is an error reported by the auth or storage provider.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth provider: %s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("auth provider: %s (%d)", e.Message, e.Status)
}

// Unwrap maps the provider's code, status and message onto a domain sentinel
// so callers can use errors.Is.
func (e *ProviderError) Unwrap() error {
	msg := strings.ToLower(e.Message)
	switch {
	case e.Code == "invalid_credentials" || strings.Contains(msg, "invalid login credentials"):
		return ErrInvalidCredentials
	case e.Code == "user_already_exists" || strings.Contains(msg, "already registered"):
		return ErrUserAlreadyExists
	case e.Code == "email_not_confirmed" || strings.Contains(msg, "email not confirmed"):
		return ErrEmailNotConfirmed
	case e.Code == "weak_password":
		return ErrWeakPassword
	case e.Code == "otp_expired" || strings.Contains(msg, "invalid or has expired"):
		return ErrInvalidOTP
	case strings.HasPrefix(e.Code, "captcha") || strings.Contains(msg, "captcha"):
		return ErrCaptchaFailed
	case e.Code == "session_not_found" || e.Code == "refresh_token_not_found":
		return ErrSessionMissing
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
