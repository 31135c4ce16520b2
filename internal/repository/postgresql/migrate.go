package postgresql

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schema string

// Migrate applies schema.sql. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("Migrate: %w", err)
		}
	}
	return nil
}
