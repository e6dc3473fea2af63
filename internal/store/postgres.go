package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/novacarriers/claimdesk/internal/model"
)

// NewPool constructs a pgx connection pool using the provided connection string.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	if connString == "" {
		return nil, fmt.Errorf("db: empty connection string")
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("db: parse config: %w", err)
	}

	return pgxpool.NewWithConfig(ctx, cfg)
}

// PostgresBackend keeps the collection as one JSONB row.
type PostgresBackend struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgresBackend ensures the snapshot table exists.
func NewPostgresBackend(ctx context.Context, pool *pgxpool.Pool, key string) (*PostgresBackend, error) {
	if key == "" {
		key = DefaultSnapshotKey
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS claim_snapshots (
			key        TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			counter    INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return nil, fmt.Errorf("create claim_snapshots: %w", err)
	}
	return &PostgresBackend{pool: pool, key: key}, nil
}

func (b *PostgresBackend) Load(ctx context.Context) (*model.Snapshot, error) {
	var body []byte
	err := b.pool.QueryRow(ctx, `SELECT body FROM claim_snapshots WHERE key = $1`, b.key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: postgres load: %v", ErrUnavailable, err)
	}
	snap, err := decodeSnapshot(body)
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
func (b *PostgresBackend) quarantine(ctx context.Context) (string, error) {
	dst := corruptKey(b.key, time.Now())
	_, err := b.pool.Exec(ctx, `
		INSERT INTO claim_snapshots (key, body, counter, updated_at)
		SELECT $1, body, counter, now() FROM claim_snapshots WHERE key = $2
		ON CONFLICT (key) DO NOTHING`,
		dst, b.key)
	return dst, err
}

func (b *PostgresBackend) Save(ctx context.Context, snap *model.Snapshot) error {
	body, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if _, err := b.pool.Exec(ctx, `
		INSERT INTO claim_snapshots (key, body, counter, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE SET
			body = EXCLUDED.body,
			counter = EXCLUDED.counter,
			updated_at = EXCLUDED.updated_at`,
		b.key, body, snap.Counter,
	); err != nil {
		return fmt.Errorf("%w: postgres save: %v", ErrUnavailable, err)
	}
	return nil
}
