package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap(t *testing.T) {
	t.Run("memory provider needs only a session secret", func(t *testing.T) {
		cfg, err := FromMap(map[string]string{
			"SESSION_SECRET": "secret",
			"AUTH_PROVIDER":  ProviderMemory,
			"APP_BASE_URL":   "http://example.test/",
		})
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.GetAddr())
		assert.Equal(t, "http://example.test", cfg.GetAppBaseURL())
		assert.Equal(t, SessionCookie, cfg.GetSessionBackend())
		assert.Equal(t, 10*time.Second, cfg.GetAuthTimeout())
		assert.Equal(t, "avatars", cfg.GetStorageBucket())
	})

	t.Run("hosted provider requires url and key", func(t *testing.T) {
		_, err := FromMap(map[string]string{
			"SESSION_SECRET": "secret",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AUTH_URL and AUTH_ANON_KEY")
	})

	t.Run("reports every problem at once", func(t *testing.T) {
		_, err := FromMap(map[string]string{
			"AUTH_PROVIDER":   "carrier-pigeon",
			"SESSION_BACKEND": "floppy",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_SECRET is required")
		assert.Contains(t, err.Error(), `unknown AUTH_PROVIDER "carrier-pigeon"`)
		assert.Contains(t, err.Error(), `unknown SESSION_BACKEND "floppy"`)
	})

	t.Run("surreal provider requires connection settings", func(t *testing.T) {
		_, err := FromMap(map[string]string{
			"SESSION_SECRET": "secret",
			"AUTH_PROVIDER":  ProviderSurreal,
			"SURREAL_URL":    "ws://localhost:8000",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SURREAL_NS")
	})

	t.Run("trailing slash is trimmed from the auth url", func(t *testing.T) {
		cfg, err := FromMap(map[string]string{
			"SESSION_SECRET": "secret",
			"AUTH_URL":       "https://project.auth.test/",
			"AUTH_ANON_KEY":  "anon",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://project.auth.test", cfg.GetAuthURL())
	})
}
