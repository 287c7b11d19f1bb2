package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Query runs a SurrealQL statement and returns the rows of the first
// statement.
//
//	rows, err := Query[accountRow](ctx, db, "SELECT * FROM account WHERE email = $email", map[string]any{"email": addr})
func Query[T any](ctx context.Context, db *surrealdb.DB, query string, params map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, query, params)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", summary(query), err)
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

// QueryOne returns the first row, or nil when there is none. SELECTs without
// a LIMIT get LIMIT 1.
func QueryOne[T any](ctx context.Context, db *surrealdb.DB, query string, params map[string]any) (*T, error) {
	query = strings.TrimRight(strings.TrimSpace(query), ";")
	if isSelect(query) && !hasLimit(query) {
		query += " LIMIT 1"
	}

	rows, err := Query[T](ctx, db, query, params)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Execute runs statements whose rows are not needed, such as schema
// definitions or updates.
func Execute(ctx context.Context, db *surrealdb.DB, query string, params map[string]any) error {
	if _, err := surrealdb.Query[any](ctx, db, query, params); err != nil {
		return fmt.Errorf("execute %q: %w", summary(query), err)
	}
	return nil
}

func isSelect(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}

func hasLimit(query string) bool {
	return strings.Contains(" "+strings.ToUpper(strings.Join(strings.Fields(query), " "))+" ", " LIMIT ")
}

// summary shortens a statement for error messages.
func summary(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	if len(q) > 60 {
		return q[:57] + "..."
	}
	return q
}
