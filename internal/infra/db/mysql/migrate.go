package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

// records is LONGTEXT rather than JSON because MySQL reorders JSON object keys.
//
//go:embed migrations.sql
var schema string

// Migrate creates the tables when missing. Statements run one by one so the DSN
// does not need multiStatements.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
