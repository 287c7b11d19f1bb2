package authtoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nfrund/opin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	codec := NewCodec("top-secret").WithClock(fixedClock(now))
	user := domain.User{ID: "user-1", Email: "ada@example.com"}

	token, exp, err := codec.Issue(user, "sess-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "authenticated", claims.Role)
	assert.Equal(t, exp, claims.ExpiresAt)
}

func TestParseRejects(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	codec := NewCodec("top-secret").WithClock(fixedClock(now))
	user := domain.User{ID: "user-1"}

	t.Run("expired tokens", func(t *testing.T) {
		token, _, err := codec.Issue(user, "s", time.Minute)
		require.NoError(t, err)

		later := codec.WithClock(fixedClock(now.Add(2 * time.Minute)))
		_, err = later.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("foreign signatures", func(t *testing.T) {
		token, _, err := NewCodec("other").WithClock(fixedClock(now)).Issue(user, "s", time.Hour)
		require.NoError(t, err)

		_, err = codec.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unexpected algorithms", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		})
		token, err := raw.SignedString([]byte("top-secret"))
		require.NoError(t, err)

		_, err = codec.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := codec.Parse("  ")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestReadOnlyCodec(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	token, exp, err := NewCodec("provider-secret").WithClock(fixedClock(now)).Issue(domain.User{ID: "u-9", Email: "x@y.io"}, "s", time.Hour)
	require.NoError(t, err)

	reader := NewCodec("")
	assert.False(t, reader.Verifies())

	claims, err := reader.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u-9", claims.UserID)
	assert.Equal(t, exp, claims.ExpiresAt)

	_, _, err = reader.Issue(domain.User{ID: "u"}, "s", time.Hour)
	assert.Error(t, err)
}
