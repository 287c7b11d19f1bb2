// Package authclient talks to a hosted, GoTrue-compatible auth service and its
// object storage API.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nfrund/opin/internal/authtoken"
	"github.com/nfrund/opin/internal/domain"
)

// Client is a domain.AuthProvider backed by the hosted auth REST API.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	tokens  *authtoken.Codec
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenCodec sets the codec used to read access token claims.
func WithTokenCodec(codec *authtoken.Codec) Option {
	return func(c *Client) { c.tokens = codec }
}

// New creates a client for the project at baseURL.
func New(baseURL, anonKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: timeout},
		tokens:  authtoken.NewCodec(""),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.AuthProvider = (*Client)(nil)

type securityMeta struct {
	CaptchaToken string `json:"captcha_token,omitempty"`
}

type passwordGrant struct {
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Security *securityMeta `json:"gotrue_meta_security,omitempty"`
}

type signUpRequest struct {
	Email    string              `json:"email"`
	Password string              `json:"password"`
	Data     domain.UserMetadata `json:"data"`
	Security *securityMeta       `json:"gotrue_meta_security,omitempty"`
}

type recoverRequest struct {
	Email    string        `json:"email"`
	Security *securityMeta `json:"gotrue_meta_security,omitempty"`
}

type verifyRequest struct {
	Type      domain.OTPType `json:"type"`
	TokenHash string         `json:"token_hash"`
}

type updateUserRequest struct {
	Password *string              `json:"password,omitempty"`
	Data     *domain.UserMetadata `json:"data,omitempty"`
}

type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         *domain.User `json:"user"`
}

// errorResponse covers both error shapes the service has used.
type errorResponse struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func captcha(token string) *securityMeta {
	if token == "" {
		return nil
	}
	return &securityMeta{CaptchaToken: token}
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password, captchaToken string) (*domain.Session, error) {
	var resp sessionResponse
	body := passwordGrant{Email: email, Password: password, Security: captcha(captchaToken)}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &resp); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return c.toSession(resp)
}

// SignUp registers a user. The returned session is nil when email
// confirmation is required.
func (c *Client) SignUp(ctx context.Context, email, password, captchaToken string, meta domain.UserMetadata) (*domain.SignUpResult, error) {
	raw := json.RawMessage{}
	body := signUpRequest{Email: email, Password: password, Data: meta, Security: captcha(captchaToken)}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &raw); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	var withSession sessionResponse
	if err := json.Unmarshal(raw, &withSession); err == nil && withSession.AccessToken != "" {
		sess, err := c.toSession(withSession)
		if err != nil {
			return nil, err
		}
		return &domain.SignUpResult{User: sess.User, Session: sess}, nil
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("sign up: decode user: %w", err)
	}
	return &domain.SignUpResult{User: user}, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := c.do(ctx, http.MethodPost, "/auth/v1/logout?scope=local", accessToken, nil, nil); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// GetUser fetches the user that owns accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, domain.ErrSessionMissing
	}
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// RefreshSession trades a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, domain.ErrSessionMissing
	}
	var resp sessionResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &resp); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return c.toSession(resp)
}

// UpdateUser changes the password and/or metadata of the signed-in user.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, attrs domain.UserAttributes) (*domain.User, error) {
	var user domain.User
	body := updateUserRequest{Password: attrs.Password, Data: attrs.Metadata}
	if err := c.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, body, &user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &user, nil
}

// ResetPasswordForEmail sends a recovery link that returns to redirectTo.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo, captchaToken string) error {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	body := recoverRequest{Email: email, Security: captcha(captchaToken)}
	if err := c.do(ctx, http.MethodPost, path, "", body, nil); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// VerifyOTP redeems the token hash of an emailed link.
func (c *Client) VerifyOTP(ctx context.Context, tokenHash string, otpType domain.OTPType) (*domain.Session, error) {
	var resp sessionResponse
	body := verifyRequest{Type: otpType, TokenHash: tokenHash}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/verify", "", body, &resp); err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	return c.toSession(resp)
}

func (c *Client) toSession(resp sessionResponse) (*domain.Session, error) {
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("auth provider returned no access token: %w", domain.ErrSessionMissing)
	}

	sess := &domain.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	switch {
	case resp.ExpiresAt > 0:
		sess.ExpiresAt = time.Unix(resp.ExpiresAt, 0).UTC()
	case resp.ExpiresIn > 0:
		sess.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
	default:
		if claims, err := c.tokens.Parse(resp.AccessToken); err == nil {
			sess.ExpiresAt = claims.ExpiresAt
		}
	}

	if resp.User != nil {
		sess.User = *resp.User
	} else {
		claims, err := c.tokens.Parse(resp.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("read access token: %w", err)
		}
		sess.User = domain.User{ID: claims.UserID, Email: claims.Email}
	}
	return sess, nil
}

// do sends a JSON request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req, bearer)

	return c.send(req, out)
}

func (c *Client) authorize(req *http.Request, bearer string) {
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("network request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	perr := &domain.ProviderError{Status: resp.StatusCode}

	var er errorResponse
	if err := json.Unmarshal(raw, &er); err != nil {
		slog.Debug("auth provider returned a non-JSON error", "status", resp.StatusCode)
		perr.Message = http.StatusText(resp.StatusCode)
		return perr
	}

	perr.Code = er.ErrorCode
	if code, ok := er.Code.(string); ok && perr.Code == "" {
		perr.Code = code
	}
	if perr.Code == "" {
		perr.Code = er.Error
	}
	for _, m := range []string{er.Msg, er.Message, er.ErrorDescription, er.Error} {
		if m != "" {
			perr.Message = m
			break
		}
	}
	if perr.Message == "" {
		perr.Message = http.StatusText(resp.StatusCode)
	}
	return perr
}
