package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/nfrund/opin/internal/config"
)

// surrealVars are copied from .env.test or the environment into the test
// configuration.
var surrealVars = []string{"SURREAL_URL", "SURREAL_NS", "SURREAL_DB", "SURREAL_USER", "SURREAL_PASS"}

// SurrealConfig returns a configuration for the SurrealDB provider built from
// .env.test at the project root, with the process environment taking
// precedence. The test is skipped in short mode or when no database URL is
// known.
func SurrealConfig(t *testing.T) config.Provider {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	vars := map[string]string{
		"SESSION_SECRET": "test",
		"AUTH_PROVIDER":  config.ProviderSurreal,
	}
	if root, ok := projectRoot(); ok {
		if env, err := godotenv.Read(filepath.Join(root, ".env.test")); err == nil {
			for _, k := range surrealVars {
				vars[k] = env[k]
			}
		}
	}
	for _, k := range surrealVars {
		if v := os.Getenv(k); v != "" {
			vars[k] = v
		}
	}
	if vars["SURREAL_URL"] == "" {
		t.Skip("SURREAL_URL not set")
	}

	cfg, err := config.FromMap(vars)
	if err != nil {
		t.Fatalf("test configuration: %v", err)
	}
	return cfg
}

// projectRoot walks up from the working directory to the go.mod.
func projectRoot() (string, bool) {
	path, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			return path, true
		}
		if path == filepath.Dir(path) {
			return "", false
		}
		path = filepath.Dir(path)
	}
}

// UniqueEmail returns an address no other test run has used.
func UniqueEmail(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8] + "@example.com"
}
