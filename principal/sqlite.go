package principal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/teamer-dev/authsession"
	"github.com/teamer-dev/authsession/password"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps principals in a principals table.
type SQLiteStore struct {
	db     *sql.DB
	hasher Hasher
	dummy  string
}

// OpenSQLite opens the database at path and prepares the schema.
func OpenSQLite(path string, hasher Hasher) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open principal database: %v", err)
	}
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteStore(db, hasher)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQLiteStore(db *sql.DB, hasher Hasher) (*SQLiteStore, error) {
	if hasher == nil {
		hasher = &password.Bcrypt{}
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS principals (
			id            TEXT PRIMARY KEY,
			name          TEXT UNIQUE,
			email         TEXT UNIQUE,
			password_hash TEXT NOT NULL
		);`); err != nil {
		return nil, fmt.Errorf("couldn't create principals: %v", err)
	}
	dummy, err := dummyHash(hasher)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, hasher: hasher, dummy: dummy}, nil
}

// Add inserts a principal with a generated id.
func (s *SQLiteStore) Add(ctx context.Context, name, email, plain string) (authsession.Principal, error) {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return authsession.Principal{}, err
	}

	id := uuid.NewString()
	email = normalize(email)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO principals (id, name, email, password_hash) VALUES (?, ?, ?, ?)`,
		id, nullable(strings.TrimSpace(name)), nullable(email), hash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return authsession.Principal{}, ErrDuplicate
		}
		return authsession.Principal{}, fmt.Errorf("insert principal: %w", err)
	}
	return authsession.Principal{ID: id, Email: email}, nil
}

func (s *SQLiteStore) Authenticate(ctx context.Context, identifier, plain string) (authsession.Principal, error) {
	var (
		id    string
		email sql.NullString
		hash  string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM principals WHERE email = ?`, normalize(identifier),
	).Scan(&id, &email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.QueryRowContext(ctx,
			`SELECT id, email, password_hash FROM principals WHERE name = ?`, strings.TrimSpace(identifier),
		).Scan(&id, &email, &hash)
	}
	if errors.Is(err, sql.ErrNoRows) {
		_, _ = s.hasher.Verify(plain, s.dummy)
		return authsession.Principal{}, authsession.ErrInvalidCredentials
	}
	if err != nil {
		return authsession.Principal{}, fmt.Errorf("lookup principal: %w", err)
	}

	match, err := s.hasher.Verify(plain, hash)
	if err != nil {
		return authsession.Principal{}, err
	}
	if !match {
		return authsession.Principal{}, authsession.ErrInvalidCredentials
	}
	return authsession.Principal{ID: id, Email: email.String}, nil
}

func (s *SQLiteStore) GetPrincipalByID(ctx context.Context, id string) (authsession.Principal, error) {
	var email sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT email FROM principals WHERE id = ?`, id).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return authsession.Principal{}, authsession.ErrPrincipalNotFound
	}
	if err != nil {
		return authsession.Principal{}, fmt.Errorf("lookup principal: %w", err)
	}
	return authsession.Principal{ID: id, Email: email.String}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
