package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"apartment-estimator/utils"
)

// PostgresStore persists apartments and training runs in PostgreSQL.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore opens a connection to PostgreSQL, retries the initial
// ping while the server comes up, runs schema migrations and returns a
// ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retries int, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := utils.RetryConfig{MaxAttempts: retries, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{sqlStore{db: db, d: postgresDialect}}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ps, nil
}
