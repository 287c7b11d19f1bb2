package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/opin/internal/config"
	"github.com/surrealdb/surrealdb.go"
)

// dial opens a SurrealDB connection and selects the namespace and database.
// Root sign-in is skipped when SURREAL_USER is empty, which suits a local
// server started with --unauthenticated.
func dial(ctx context.Context, cfg config.Provider) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.GetDBUrl())
	if err != nil {
		return nil, fmt.Errorf("connect to surrealdb: %w", err)
	}

	if cfg.GetDBUser() != "" {
		auth := &surrealdb.Auth{Username: cfg.GetDBUser(), Password: cfg.GetDBPass()}
		if _, err := db.SignIn(ctx, auth); err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("sign in to surrealdb as %s: %w", cfg.GetDBUser(), err)
		}
	}

	if err := db.Use(ctx, cfg.GetDBNs(), cfg.GetDBDb()); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("use %s/%s: %w", cfg.GetDBNs(), cfg.GetDBDb(), err)
	}

	slog.Info("Connected to SurrealDB", "db_url", redactDBURL(cfg.GetDBUrl()), "namespace", cfg.GetDBNs(), "database", cfg.GetDBDb())
	return db, nil
}
