package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const createBlobTable = `
	CREATE TABLE IF NOT EXISTS weather_blobs (
		bucket       VARCHAR(255) NOT NULL,
		key          VARCHAR(1024) NOT NULL,
		content_type VARCHAR(255),
		body         BYTEA NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (bucket, key)
	);`

const selectBlob = `SELECT body FROM weather_blobs WHERE bucket = $1 AND key = $2`

const upsertBlob = `
	INSERT INTO weather_blobs (bucket, key, content_type, body, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (bucket, key)
	DO UPDATE SET content_type = EXCLUDED.content_type, body = EXCLUDED.body, updated_at = NOW();`

// PostgresStore keeps blobs in a single Postgres table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgresStore connects to dsn, checks the connection and creates the
// blob table if needed.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createBlobTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create weather_blobs: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Get reads the whole object.
func (s *PostgresStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, selectBlob, bucket, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select blob: %w", err)
	}
	return body, nil
}

// Put inserts or replaces the object in one statement.
func (s *PostgresStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if _, err := s.db.ExecContext(ctx, upsertBlob, bucket, key, contentType, data); err != nil {
		return fmt.Errorf("upsert blob: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
