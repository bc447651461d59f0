package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the embedded DDL for callers that manage their own
// database handle, such as the seed command.
func Schema() string {
	return schemaSQL
}

// Migrate creates the run storage tables when they do not exist yet.
// The schema is idempotent, so running it on every boot is safe.
func Migrate(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
