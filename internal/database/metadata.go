package database

import (
	"context"
	"database/sql"
	"errors"
)

const (
	metaSchemaVersion = "schema_version"
	metaRecords       = "external_records"
	metaSettings      = "external_settings"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// getMetadata retrieves a metadata value by key. A missing key yields "".
func getMetadata(ctx context.Context, q queryRower, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// setMetadata sets a metadata key-value pair.
func setMetadata(ctx context.Context, e execer, key, value string) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// SchemaVersion returns the schema version recorded by the last migration.
func (d *Database) SchemaVersion(ctx context.Context) (string, error) {
	return getMetadata(ctx, d.db, metaSchemaVersion)
}
