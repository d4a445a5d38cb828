package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

// records is stored as JSON, not JSONB, so column order survives the round trip.
//
//go:embed migrations.sql
var schema string

// Migrate creates the tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
