package principal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(path, fastHasher())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	s := newTestSQLiteStore(t, ":memory:")
	ada, err := s.Add(context.Background(), "ada", "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	exercisePrincipalStore(t, s, ada.ID)
}

func TestSQLiteStoreDuplicates(t *testing.T) {
	s := newTestSQLiteStore(t, ":memory:")
	ctx := context.Background()

	if _, err := s.Add(ctx, "ada", "ada@example.com", "pw"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Add(ctx, "other", "ada@example.com", "pw"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate email = %v", err)
	}
}

func TestSQLiteStoreNameOnlyPrincipal(t *testing.T) {
	s := newTestSQLiteStore(t, ":memory:")
	ctx := context.Background()

	p, err := s.Add(ctx, "svc-backup", "", "pw")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := s.Authenticate(ctx, "svc-backup", "pw")
	if err != nil || got.ID != p.ID || got.Email != "" {
		t.Fatalf("Authenticate = %+v, %v", got, err)
	}
	// A second email-less principal must not collide on NULL email.
	if _, err := s.Add(ctx, "svc-report", "", "pw"); err != nil {
		t.Fatalf("second name-only Add: %v", err)
	}
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "principals.db")
	ctx := context.Background()

	first, err := OpenSQLite(path, fastHasher())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	ada, err := first.Add(ctx, "ada", "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	_ = first.Close()

	second := newTestSQLiteStore(t, path)
	if _, err := second.GetPrincipalByID(ctx, ada.ID); err != nil {
		t.Fatalf("after reopen: %v", err)
	}
}

func TestOpenSQLiteRejectsFailingHasher(t *testing.T) {
	if s, err := OpenSQLite(":memory:", brokenHasher{}); err == nil || s != nil {
		t.Fatalf("OpenSQLite = %v, %v, want error", s, err)
	}
}
