package results

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version. Bump it with schema.sql.
const schemaVersion = 1

// ErrSchemaMismatch reports a results database written by another schema.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema creates the tables in an empty database and refuses one whose
// user_version differs. Version 0 with existing tables is also a mismatch.
func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	switch version {
	case schemaVersion:
		return nil
	case 0:
		var tables int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'chapters'",
		).Scan(&tables); err != nil {
			return fmt.Errorf("inspect results database: %w", err)
		}
		if tables > 0 {
			return fmt.Errorf("%w: unversioned results tables (delete %s to recreate it)", ErrSchemaMismatch, s.path)
		}
	default:
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate it)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}
