package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/novacarriers/claimdesk/internal/model"

	_ "modernc.org/sqlite"
)

// DefaultSnapshotKey names the single stored collection.
const DefaultSnapshotKey = "claimdesk:claims:store:v1"

// OpenSQLite opens (or creates) a SQLite database at the given path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// SQLiteBackend keeps the whole collection as one row of a SQLite table.
type SQLiteBackend struct {
	db  *sql.DB
	key string
}

// NewSQLiteBackend creates the backend and brings the schema up to date.
func NewSQLiteBackend(db *sql.DB, key string) (*SQLiteBackend, error) {
	if key == "" {
		key = DefaultSnapshotKey
	}
	b := &SQLiteBackend{db: db, key: key}
	if err := b.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

// currentSchemaVersion is bumped whenever the schema changes.
// Add a new migration function in the migrations slice below.
const currentSchemaVersion = 2

func (b *SQLiteBackend) migrate() error {
	if _, err := b.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := b.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := b.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	// Index 0 = migration from v0 to v1, etc.
	migrations := []func() error{
		b.migrateV1, // v0 → v1: snapshots table
		b.migrateV2, // v1 → v2: counter column for inspection
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := b.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}
	return nil
}

// migrateV1 creates the snapshots table (v0 → v1).
func (b *SQLiteBackend) migrateV1() error {
	_, err := b.db.Exec(`
	CREATE TABLE IF NOT EXISTS snapshots (
		key        TEXT PRIMARY KEY,
		body       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	return err
}

// migrateV2 adds the counter column (v1 → v2).
func (b *SQLiteBackend) migrateV2() error {
	_, err := b.db.Exec(`ALTER TABLE snapshots ADD COLUMN counter INTEGER NOT NULL DEFAULT 0`)
	return err
}

// Load returns the stored collection, or an empty one when no row exists.
// An undecodable row is copied to a corrupt key first and then also reads
// as empty.
func (b *SQLiteBackend) Load(ctx context.Context) (*model.Snapshot, error) {
	var body string
	err := b.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE key = ?`, b.key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite load: %v", ErrUnavailable, err)
	}
	snap, err := decodeSnapshot([]byte(body))
	if err != nil {
		moved, qErr := b.quarantine(ctx)
		if qErr != nil {
			return nil, fmt.Errorf("%w: keep corrupt row %s: %v", ErrUnavailable, b.key, qErr)
		}
		slog.Warn("corrupt snapshot row, starting empty", "key", b.key, "copied_to", moved, "error", err)
		return model.NewSnapshot(), nil
	}
	return snap, nil
}

// quarantine copies the current row to <key>.corrupt.<timestamp>.
func (b *SQLiteBackend) quarantine(ctx context.Context) (string, error) {
	now := time.Now()
	dst := corruptKey(b.key, now)
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, body, counter, updated_at)
		SELECT ?, body, counter, ? FROM snapshots WHERE key = ?
		ON CONFLICT(key) DO NOTHING`,
		dst, now.UTC().Format(time.RFC3339), b.key)
	return dst, err
}

// Save replaces the stored collection in a single transaction.
func (b *SQLiteBackend) Save(ctx context.Context, snap *model.Snapshot) error {
	body, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (key, body, counter, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			body = excluded.body,
			counter = excluded.counter,
			updated_at = excluded.updated_at`,
		b.key, string(body), snap.Counter, now,
	); err != nil {
		return fmt.Errorf("%w: sqlite save: %v", ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrUnavailable, err)
	}
	return nil
}
