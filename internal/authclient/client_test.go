package authclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nfrund/opin/internal/authtoken"
	"github.com/nfrund/opin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anonKey = "anon-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", anonKey, 5*time.Second, WithHTTPClient(srv.Client()))
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestSignInWithPassword(t *testing.T) {
	t.Run("success forwards the captcha token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/token", r.URL.Path)
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			assert.Equal(t, anonKey, r.Header.Get("apikey"))

			var body passwordGrant
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ada@example.com", body.Email)
			require.NotNil(t, body.Security)
			assert.Equal(t, "turnstile-token", body.Security.CaptchaToken)

			writeJSON(t, w, http.StatusOK, map[string]any{
				"access_token":  "access",
				"refresh_token": "refresh",
				"expires_at":    1767225600,
				"user":          map[string]any{"id": "u-1", "email": "ada@example.com"},
			})
		})

		sess, err := client.SignInWithPassword(context.Background(), "ada@example.com", "Secret1!", "turnstile-token")
		require.NoError(t, err)
		assert.Equal(t, "access", sess.AccessToken)
		assert.Equal(t, "refresh", sess.RefreshToken)
		assert.Equal(t, "u-1", sess.User.ID)
		assert.Equal(t, time.Unix(1767225600, 0).UTC(), sess.ExpiresAt)
	})

	t.Run("rejected credentials map to the domain error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusBadRequest, map[string]any{
				"code":       400,
				"error_code": "invalid_credentials",
				"msg":        "Invalid login credentials",
			})
		})

		_, err := client.SignInWithPassword(context.Background(), "ada@example.com", "wrong", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.Contains(t, err.Error(), "Invalid login credentials")
	})

	t.Run("legacy error shape", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusBadRequest, map[string]any{
				"error":             "invalid_grant",
				"error_description": "Email not confirmed",
			})
		})

		_, err := client.SignInWithPassword(context.Background(), "ada@example.com", "pw", "")
		assert.ErrorIs(t, err, domain.ErrEmailNotConfirmed)
	})
}

func TestSignUp(t *testing.T) {
	t.Run("confirmation required returns the user only", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/signup", r.URL.Path)
			var body signUpRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Ada", body.Data.FirstName)
			writeJSON(t, w, http.StatusOK, map[string]any{"id": "u-2", "email": "ada@example.com"})
		})

		res, err := client.SignUp(context.Background(), "ada@example.com", "Secret1!", "", domain.UserMetadata{FirstName: "Ada", LastName: "Lovelace"})
		require.NoError(t, err)
		assert.Nil(t, res.Session)
		assert.Equal(t, "u-2", res.User.ID)
	})

	t.Run("auto-confirmed projects return a session", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"access_token": "a",
				"expires_in":   3600,
				"user":         map[string]any{"id": "u-3", "email": "b@example.com"},
			})
		})

		res, err := client.SignUp(context.Background(), "b@example.com", "Secret1!", "", domain.UserMetadata{})
		require.NoError(t, err)
		require.NotNil(t, res.Session)
		assert.Equal(t, "u-3", res.User.ID)
		assert.False(t, res.Session.ExpiresAt.IsZero())
	})
}

func TestRefreshSessionReadsClaimsWhenUserMissing(t *testing.T) {
	codec := authtoken.NewCodec("secret")
	token, exp, err := codec.Issue(domain.User{ID: "u-4", Email: "c@example.com"}, "s", time.Hour)
	require.NoError(t, err)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		writeJSON(t, w, http.StatusOK, map[string]any{"access_token": token, "refresh_token": "r2"})
	})

	sess, err := client.RefreshSession(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "u-4", sess.User.ID)
	assert.Equal(t, "c@example.com", sess.User.Email)
	assert.Equal(t, exp, sess.ExpiresAt)

	_, err = client.RefreshSession(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrSessionMissing)
}

func TestUserEndpointsSendBearer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK, map[string]any{"id": "u-5", "email": "d@example.com", "user_metadata": map[string]any{"first_name": "Dee"}})
		case http.MethodPut:
			var body updateUserRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.NotNil(t, body.Password)
			assert.Nil(t, body.Data)
			writeJSON(t, w, http.StatusOK, map[string]any{"id": "u-5"})
		case http.MethodPost:
			assert.Equal(t, "/auth/v1/logout", r.URL.Path)
			assert.Equal(t, "local", r.URL.Query().Get("scope"), "only this session is revoked")
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	user, err := client.GetUser(ctx, "user-token")
	require.NoError(t, err)
	assert.Equal(t, "Dee", user.Metadata.FirstName)

	pw := "N3w-password"
	_, err = client.UpdateUser(ctx, "user-token", domain.UserAttributes{Password: &pw})
	require.NoError(t, err)

	require.NoError(t, client.SignOut(ctx, "user-token"))

	_, err = client.GetUser(ctx, "")
	assert.ErrorIs(t, err, domain.ErrSessionMissing)
}

func TestResetPasswordAndVerify(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/recover":
			assert.Equal(t, "http://app.test/auth/confirm", r.URL.Query().Get("redirect_to"))
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, "{}")
		case "/auth/v1/verify":
			var body verifyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body.TokenHash != "good" {
				writeJSON(t, w, http.StatusForbidden, map[string]any{"error_code": "otp_expired", "msg": "Email link is invalid or has expired"})
				return
			}
			assert.Equal(t, domain.OTPRecovery, body.Type)
			writeJSON(t, w, http.StatusOK, map[string]any{"access_token": "a", "expires_in": 60, "user": map[string]any{"id": "u-6"}})
		}
	})
	ctx := context.Background()

	require.NoError(t, client.ResetPasswordForEmail(ctx, "e@example.com", "http://app.test/auth/confirm", ""))

	sess, err := client.VerifyOTP(ctx, "good", domain.OTPRecovery)
	require.NoError(t, err)
	assert.Equal(t, "u-6", sess.User.ID)

	_, err = client.VerifyOTP(ctx, "stale", domain.OTPRecovery)
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)
}

func TestNetworkFailure(t *testing.T) {
	client := New("http://127.0.0.1:1", anonKey, time.Second)
	_, err := client.SignInWithPassword(context.Background(), "a@b.co", "pw", "")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "network request failed"))
}
