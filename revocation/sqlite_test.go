package revocation

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreContract(t *testing.T) {
	exerciseStore(t, newTestSQLiteStore(t))
}

func TestSQLiteStoreConcurrentPuts(t *testing.T) {
	exerciseConcurrentPuts(t, newTestSQLiteStore(t))
}

func TestSQLiteStorePrune(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Unix(1_800_000_000, 0)

	if err := s.Put(ctx, "expired", now.Add(-time.Minute)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "live", now.Add(time.Minute)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	n, err := s.Prune(ctx, now)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned record, got %d", n)
	}
	if ok, _ := s.Contains(ctx, "expired"); ok {
		t.Fatal("expired record survived prune")
	}
	if ok, _ := s.Contains(ctx, "live"); !ok {
		t.Fatal("live record was pruned")
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revocations.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	if err := s.Put(ctx, "durable", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if ok, err := s.Contains(ctx, "durable"); err != nil || !ok {
		t.Fatalf("Contains after reopen = %v, %v", ok, err)
	}
}
