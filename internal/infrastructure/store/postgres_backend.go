package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresBackend keeps each collection as one row of farmbe_collections.
type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) Get(ctx context.Context, key string) (Record, error) {
	var (
		value   string
		version int64
	)
	err := b.db.QueryRowContext(ctx,
		"SELECT value, version FROM farmbe_collections WHERE key = $1",
		key,
	).Scan(&value, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{Key: key}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return Record{Key: key, Value: []byte(value), Version: version}, nil
}

// Commit runs every write in one transaction. A write whose version guard
// matches no row aborts the whole transaction.
func (b *PostgresBackend) Commit(ctx context.Context, writes ...Write) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, w := range writes {
		var res sql.Result
		if w.ExpectedVersion == 0 {
			res, err = tx.ExecContext(ctx,
				`INSERT INTO farmbe_collections (key, value, version, updated_at)
				 VALUES ($1, $2, 1, NOW())
				 ON CONFLICT (key) DO NOTHING`,
				w.Key, string(w.Value),
			)
		} else {
			res, err = tx.ExecContext(ctx,
				`UPDATE farmbe_collections
				 SET value = $2, version = version + 1, updated_at = NOW()
				 WHERE key = $1 AND version = $3`,
				w.Key, string(w.Value), w.ExpectedVersion,
			)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", w.Key, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", w.Key, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s moved past version %d", ErrVersionConflict, w.Key, w.ExpectedVersion)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
