package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/novacarriers/claimdesk/internal/config"
)

// OpenBackend builds the backend selected by cfg.StoreBackend. The returned
// close function releases database handles and is always safe to call.
func OpenBackend(ctx context.Context, cfg config.Config) (Backend, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case config.BackendFile, "":
		b := NewFileBackend(cfg.DataDir)
		slog.Info("store backend", "backend", config.BackendFile, "path", b.Path())
		return b, noop, nil

	case config.BackendMemory:
		slog.Info("store backend", "backend", config.BackendMemory)
		return NewMemoryBackend(), noop, nil

	case config.BackendSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite: %w", err)
		}
		b, err := NewSQLiteBackend(db, cfg.SnapshotKey)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		slog.Info("store backend", "backend", config.BackendSQLite, "path", cfg.SQLitePath)
		return b, func() { db.Close() }, nil

	case config.BackendPostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		b, err := NewPostgresBackend(ctx, pool, cfg.SnapshotKey)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		slog.Info("store backend", "backend", config.BackendPostgres)
		return b, pool.Close, nil

	case config.BackendS3:
		if cfg.S3Bucket == "" {
			return nil, noop, fmt.Errorf("S3_BUCKET is required for the s3 backend")
		}
		client, err := NewS3Client(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("store backend", "backend", config.BackendS3, "bucket", cfg.S3Bucket, "key", cfg.S3Key)
		return NewS3Backend(client, cfg.S3Bucket, cfg.S3Key), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
