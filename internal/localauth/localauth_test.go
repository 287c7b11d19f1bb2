package localauth

import (
	"context"
	"testing"
	"time"

	"github.com/nfrund/opin/internal/database"
	"github.com/nfrund/opin/internal/domain"
	"github.com/nfrund/opin/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRowUser(t *testing.T) {
	row := accountRow{
		UID:         "u-1",
		Email:       "ada@example.com",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		ConfirmedAt: "2025-01-02T03:04:05Z",
	}
	u := row.user()
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "Lovelace", u.Metadata.LastName)
	require.NotNil(t, u.ConfirmedAt)
	assert.Equal(t, 2025, u.ConfirmedAt.Year())

	row.ConfirmedAt = ""
	assert.Nil(t, row.user().ConfirmedAt)
}

// setupProvider connects to the test database and migrates the schema.
func setupProvider(t *testing.T) *Provider {
	t.Helper()
	cfg := testutils.SurrealConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := database.NewConnection(cfg)
	require.NoError(t, conn.Connect(ctx))
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	p := New(conn, Options{Secret: "integration-secret", BaseURL: "http://app.test"})
	require.NoError(t, p.Migrate(ctx))
	return p
}

func TestProviderIntegration(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()
	addr := testutils.UniqueEmail("it")

	res, err := p.SignUp(ctx, addr, "Secret1!", "", domain.UserMetadata{FirstName: "It"})
	require.NoError(t, err)
	assert.Nil(t, res.Session)

	_, err = p.SignUp(ctx, addr, "Secret1!", "", domain.UserMetadata{})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = p.SignInWithPassword(ctx, addr, "Secret1!", "")
	assert.ErrorIs(t, err, domain.ErrEmailNotConfirmed)

	hash, err := p.IssueLink(ctx, addr, domain.OTPSignup)
	require.NoError(t, err)
	_, err = p.VerifyOTP(ctx, hash, domain.OTPSignup)
	require.NoError(t, err)
	_, err = p.VerifyOTP(ctx, hash, domain.OTPSignup)
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)

	_, err = p.SignInWithPassword(ctx, addr, "wrong", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	sess, err := p.SignInWithPassword(ctx, addr, "Secret1!", "")
	require.NoError(t, err)

	meta := domain.UserMetadata{FirstName: "Integration", LastName: "Test"}
	user, err := p.UpdateUser(ctx, sess.AccessToken, domain.UserAttributes{Metadata: &meta})
	require.NoError(t, err)
	assert.Equal(t, "Integration", user.Metadata.FirstName)

	refreshed, err := p.RefreshSession(ctx, sess.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, refreshed.AccessToken))
	_, err = p.GetUser(ctx, refreshed.AccessToken)
	assert.ErrorIs(t, err, domain.ErrSessionMissing)
}
