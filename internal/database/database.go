package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"image-vault/internal/logging"
	"image-vault/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// schemaVersion is stored in the metadata table after migrations run.
const schemaVersion = "2"

// Options tunes a Database. A nil *Options uses the defaults.
type Options struct {
	// Now supplies upload timestamps. Defaults to time.Now.
	Now func() time.Time
	// SkipSeed leaves an empty categories collection empty.
	SkipSeed bool
}

// Database is the storage engine. It is safe for concurrent use; writes are
// serialized at the engine level.
type Database struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time

	mu         sync.RWMutex
	images     *imageIndex
	categories []Category
	tags       []Tag
}

// New opens (creating if needed) the database file at dbPath, loads every
// collection into memory and seeds the default categories when the
// categories collection is empty. The returned bool reports whether seeding
// happened, i.e. whether this is a fresh library.
//
// The parent directory of dbPath must already exist and be writable.
func New(ctx context.Context, dbPath string, opts *Options) (*Database, bool, error) {
	logging.Info("Database path: %s", dbPath)

	if opts == nil {
		opts = &Options{}
	}

	// Diagnose potential permission issues
	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=off&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, false, &StorageError{Op: "open", Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, false, &StorageError{Op: "open", Err: err}
	}

	// Reads are served from memory, so a handful of connections is enough.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	d := &Database{
		db:     db,
		dbPath: dbPath,
		now:    now,
		images: newImageIndex(),
	}

	closeOnErr := func(err error) (*Database, bool, error) {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, false, err
	}

	if err := d.initialize(ctx); err != nil {
		return closeOnErr(storageErr("initialize_schema", err))
	}

	if err := d.load(ctx); err != nil {
		return closeOnErr(storageErr("load", err))
	}

	seeded := false
	if !opts.SkipSeed {
		if seeded, err = d.SeedDefaultCategories(ctx); err != nil {
			return closeOnErr(err)
		}
	}

	logging.Info("Database initialized successfully at %s (%d images, %d categories, %d tags)",
		dbPath, len(d.images.byID), len(d.categories), len(d.tags))
	return d, seeded, nil
}

func (d *Database) initialize(ctx context.Context) error {
	start := time.Now()

	schema := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_name TEXT NOT NULL,
		original_name TEXT NOT NULL,
		file_size INTEGER NOT NULL DEFAULT 0,
		mime_type TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'uncategorized',
		tags TEXT NOT NULL DEFAULT '[]',
		upload_date INTEGER NOT NULL,
		record_id INTEGER,
		compressed TEXT NOT NULL,
		thumbnail TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_images_category ON images(category);
	CREATE INDEX IF NOT EXISTS idx_images_upload_date ON images(upload_date DESC);
	CREATE INDEX IF NOT EXISTS idx_images_record_id ON images(record_id);

	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, schema)
	if err == nil {
		err = d.runMigrations(ctx)
	}
	recordQuery("initialize_schema", start, err)
	return err
}

// runMigrations applies database schema migrations
func (d *Database) runMigrations(ctx context.Context) error {
	// Migration 1: dimensions were added after the first release
	for _, column := range []string{"width", "height"} {
		var columnExists bool
		err := d.db.QueryRowContext(ctx, `
			SELECT COUNT(*) > 0
			FROM pragma_table_info('images')
			WHERE name = ?
		`, column).Scan(&columnExists)
		if err != nil {
			return fmt.Errorf("failed to check for %s column: %w", column, err)
		}

		if !columnExists {
			logging.Info("Migrating database: adding %s column to images table", column)
			_, err = d.db.ExecContext(ctx,
				fmt.Sprintf("ALTER TABLE images ADD COLUMN %s INTEGER NOT NULL DEFAULT 0", column))
			if err != nil {
				return fmt.Errorf("failed to add %s column: %w", column, err)
			}
		}
	}

	return setMetadata(ctx, d.db, metaSchemaVersion, schemaVersion)
}

// load reads every collection into memory.
func (d *Database) load(ctx context.Context) error {
	start := time.Now()
	err := d.loadCollections(ctx)
	recordQuery("load", start, err)
	return err
}

func (d *Database) loadCollections(ctx context.Context) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, file_name, original_name, file_size, mime_type, category, tags,
		       upload_date, record_id, compressed, thumbnail, width, height
		FROM images
	`)
	if err != nil {
		return fmt.Errorf("failed to load images: %w", err)
	}
	defer rows.Close()

	images := newImageIndex()
	for rows.Next() {
		rec, err := scanImage(rows)
		if err != nil {
			return err
		}
		images.put(rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load images: %w", err)
	}

	categories, err := queryCategories(ctx, d.db)
	if err != nil {
		return err
	}
	tags, err := queryTags(ctx, d.db)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.images = images
	d.categories = categories
	d.tags = tags
	d.mu.Unlock()
	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// withTx runs fn in a transaction and commits it. The caller holds d.mu for
// writing and applies the in-memory change only when withTx returns nil.
func (d *Database) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	txStart := time.Now()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	return d.endTx(tx, txStart, fn(tx))
}

// endTx commits or rolls back a transaction.
func (d *Database) endTx(tx *sql.Tx, txStart time.Time, err error) error {
	duration := time.Since(txStart).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		return err
	}
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return nil
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}

		logging.Warn("%s is read-only! Mode: %v - this will cause write failures", filepath.Base(path), info.Mode())
		if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", path, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", path)
		}
	}

	return nil
}
