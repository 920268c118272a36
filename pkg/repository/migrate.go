package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// requiredTables are checked by ValidateSchema.
var requiredTables = []string{
	"users", "groups", "group_users", "events", "event_signups",
	"carpools", "carpool_members", "invitations", "messages",
}

// Migrate creates any missing tables and indexes. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ValidateSchema checks that every table the store uses exists.
func ValidateSchema(ctx context.Context, db *sql.DB) error {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)
	`
	for _, table := range requiredTables {
		var exists bool
		if err := db.QueryRowContext(ctx, query, table).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check schema: %w", err)
		}
		if !exists {
			return fmt.Errorf("missing table %q: run migrations first", table)
		}
	}
	return nil
}
