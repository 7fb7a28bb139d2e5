package repository

import (
	"context"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cartkeeper/internal/migrations"
	"github.com/nikolayk812/cartkeeper/internal/port"
	"io/fs"
)

const (
	getSnapshotSQL = `SELECT value FROM cart_snapshots WHERE key = $1`

	// serializes writers of the same key across processes
	lockSnapshotSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

	upsertSnapshotSQL = `
INSERT INTO cart_snapshots (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

type postgresStorage struct {
	q    querier
	pool *pgxpool.Pool
}

func NewPostgresStorage(pool *pgxpool.Pool) port.SnapshotStorage {
	return &postgresStorage{
		q:    pool,
		pool: pool,
	}
}

func NewPostgresStorageWithTx(tx pgx.Tx) port.SnapshotStorage {
	return &postgresStorage{
		q:    tx,
		pool: nil, // use provided transaction instead
	}
}

// MigratePostgres applies the embedded schema. Statements are idempotent.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	files, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("fs.Glob: %w", err)
	}

	for _, name := range files {
		script, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("fs.ReadFile[%s]: %w", name, err)
		}

		if _, err := pool.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("pool.Exec[%s]: %w", name, err)
		}
	}

	return nil
}

func (r *postgresStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	var value string
	err := r.q.QueryRow(ctx, getSnapshotSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("q.QueryRow: %w", err)
	}

	return value, true, nil
}

func (r *postgresStorage) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	_, err := withTx(ctx, r.pool, r.q, func(q querier) (struct{}, error) {
		if _, err := q.Exec(ctx, lockSnapshotSQL, key); err != nil {
			return struct{}{}, fmt.Errorf("q.Exec lock: %w", err)
		}

		if _, err := q.Exec(ctx, upsertSnapshotSQL, key, value); err != nil {
			return struct{}{}, fmt.Errorf("q.Exec upsert: %w", err)
		}

		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}
