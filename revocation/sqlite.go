package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists revocations in the invalidated_tokens table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and prepares the schema.
// Use ":memory:" for a throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open revocation database: %v", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an open database and creates the schema if missing.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if err := initTable(db, "invalidated_tokens", `
		CREATE TABLE IF NOT EXISTS invalidated_tokens (
			jti         TEXT PRIMARY KEY,
			expires_at  INTEGER NOT NULL
		);`,
	); err != nil {
		return nil, err
	}
	if err := initTable(db, "invalidated_tokens_expires_at", `
		CREATE INDEX IF NOT EXISTS idx_invalidated_tokens_expires_at
			ON invalidated_tokens (expires_at);`,
	); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initTable(db *sql.DB, name, ddl string) error {
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("couldn't create %s: %v", name, err)
	}
	return nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.PutIfAbsent(ctx, jti, expiresAt)
	return err
}

// PutIfAbsent implements ConditionalStore.
func (s *SQLiteStore) PutIfAbsent(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	if jti == "" {
		return false, ErrInvalidRecord
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO invalidated_tokens (jti, expires_at)
		VALUES (?, ?)
		ON CONFLICT (jti) DO NOTHING;`,
		jti, expiresAt.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return n == 1, nil
}

// Contains implements Store.
func (s *SQLiteStore) Contains(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM invalidated_tokens WHERE jti = ?;`, jti,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return true, nil
}

// Prune implements Pruner.
func (s *SQLiteStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM invalidated_tokens WHERE expires_at < ?;`, now.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
