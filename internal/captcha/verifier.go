package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

const siteverifyEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var (
	// ErrMissing means the form was posted without a token.
	ErrMissing = errors.New("captcha: token missing")
	// ErrFailed means the challenge service rejected the token.
	ErrFailed = errors.New("captcha: verification failed")
	// ErrExpired means the token timed out or was already redeemed.
	ErrExpired = errors.New("captcha: token expired")
)

// Verifier checks a challenge token before a sensitive submission.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Apply records a verification outcome on ch.
func Apply(ch *Challenge, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrMissing):
		ch.Require()
	case errors.Is(err, ErrExpired):
		ch.Expire()
	default:
		ch.Fail()
	}
}

// Check verifies the token submitted with a form against v and returns the
// resulting state of ch. A disabled challenge is returned unchanged.
func Check(ctx context.Context, v Verifier, ch Challenge, token, remoteIP string) Challenge {
	if ch.Disabled {
		return ch
	}
	if err := v.Verify(ctx, token, remoteIP); err != nil {
		Apply(&ch, err)
		return ch
	}
	ch.Verify(token)
	return ch
}

// Forwarder accepts any token and leaves verification to the auth provider,
// which receives the token with the request.
type Forwarder struct{}

// Verify implements Verifier.
func (Forwarder) Verify(_ context.Context, token, _ string) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissing
	}
	return nil
}

// Off is used when no site key is configured.
type Off struct{}

// Verify implements Verifier.
func (Off) Verify(context.Context, string, string) error { return nil }

// ForSiteKey returns the verifier to use for siteKey. Without a site key the
// widget is never rendered, so the challenge is off. With one, a nil v
// falls back to Forwarder, which still refuses empty tokens.
func ForSiteKey(v Verifier, siteKey string) Verifier {
	if siteKey == "" {
		return Off{}
	}
	if v == nil {
		return Forwarder{}
	}
	return v
}

// TurnstileVerifier checks tokens with Cloudflare's siteverify API.
type TurnstileVerifier struct {
	secret   string
	endpoint string
	client   *http.Client
}

// NewTurnstileVerifier creates a verifier for secret. An empty endpoint uses
// the public siteverify URL.
func NewTurnstileVerifier(secret, endpoint string, client *http.Client) *TurnstileVerifier {
	if endpoint == "" {
		endpoint = siteverifyEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TurnstileVerifier{secret: secret, endpoint: endpoint, client: client}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify implements Verifier.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissing
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach siteverify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("siteverify returned status %d: %w", resp.StatusCode, ErrFailed)
	}

	var out siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode siteverify response: %w", err)
	}
	if out.Success {
		return nil
	}
	if slices.Contains(out.ErrorCodes, "timeout-or-duplicate") {
		return ErrExpired
	}
	return fmt.Errorf("%w: %s", ErrFailed, strings.Join(out.ErrorCodes, ","))
}
