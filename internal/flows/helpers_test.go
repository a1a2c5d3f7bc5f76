package flows

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/teamer-dev/authsession/jwt"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingStore records every call so tests can assert store access.
type countingStore struct {
	mu       sync.Mutex
	records  map[string]time.Time
	contains int
	puts     int
	err      error
	panicOn  bool
}

func newCountingStore() *countingStore {
	return &countingStore{records: make(map[string]time.Time)}
}

func (s *countingStore) Contains(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contains++
	if s.panicOn {
		panic("store exploded")
	}
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.records[jti]
	return ok, nil
}

func (s *countingStore) PutIfAbsent(_ context.Context, jti string, exp time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.err != nil {
		return false, s.err
	}
	if _, ok := s.records[jti]; ok {
		return false, nil
	}
	s.records[jti] = exp
	return true, nil
}

func (s *countingStore) has(jti string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[jti]
	return ok
}

type fixture struct {
	clock  *fakeClock
	store  *countingStore
	codec  *jwt.Codec
	issuer *jwt.Issuer
	deps   VerifyDeps
}

const (
	testValid       = 900 * time.Second
	testRefreshable = 604800 * time.Second
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	codec, err := jwt.NewCodec([]byte(strings.Repeat("f", 64)))
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	clock := &fakeClock{now: time.Unix(1_800_000_000, 0)}
	store := newCountingStore()
	return &fixture{
		clock:  clock,
		store:  store,
		codec:  codec,
		issuer: jwt.NewIssuer(codec, "test", clock.Now),
		deps: VerifyDeps{
			Decode:              codec.Decode,
			VerifySignature:     codec.VerifySignature,
			Now:                 clock.Now,
			RefreshableDuration: testRefreshable,
			Revocations:         store,
		},
	}
}

func (f *fixture) issue(t *testing.T, subject string) (string, *jwt.Claims) {
	t.Helper()
	token, claims, err := f.issuer.Issue(subject, subject+"@example.com", testValid)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return token, claims
}

func (f *fixture) issueFunc() func(string, string) (string, *jwt.Claims, error) {
	return func(subject, email string) (string, *jwt.Claims, error) {
		return f.issuer.Issue(subject, email, testValid)
	}
}
