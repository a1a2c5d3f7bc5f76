package authsession

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/teamer-dev/authsession/revocation"
)

var testSecret = []byte(strings.Repeat("s3cr3t-", 10))

const (
	testValid       = 900 * time.Second
	testRefreshable = 604800 * time.Second
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// testEpoch is far from wall time so a store reading the wrong clock shows up.
var testEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

func newFakeClock() *fakeClock {
	return newFakeClockAt(testEpoch)
}

func newFakeClockAt(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakePrincipal struct {
	id       string
	email    string
	name     string
	password string
}

// fakePrincipals records which lookups happened so tests can assert that
// refresh resolves by id.
type fakePrincipals struct {
	mu      sync.Mutex
	users   []fakePrincipal
	byID    []string
	byIDErr error
	authErr error
}

func (f *fakePrincipals) Authenticate(_ context.Context, identifier, password string) (Principal, error) {
	if f.authErr != nil {
		return Principal{}, f.authErr
	}
	for _, u := range f.users {
		if (u.email == identifier || u.name == identifier) && u.password == password {
			return Principal{ID: u.id, Email: u.email}, nil
		}
	}
	return Principal{}, ErrInvalidCredentials
}

func (f *fakePrincipals) GetPrincipalByID(_ context.Context, id string) (Principal, error) {
	f.mu.Lock()
	f.byID = append(f.byID, id)
	f.mu.Unlock()
	if f.byIDErr != nil {
		return Principal{}, f.byIDErr
	}
	for _, u := range f.users {
		if u.id == id {
			return Principal{ID: u.id, Email: u.email}, nil
		}
	}
	return Principal{}, ErrPrincipalNotFound
}

func (f *fakePrincipals) lookups() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.byID...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.SigningSecret = testSecret
	cfg.Token.ValidDuration = testValid
	cfg.Token.RefreshableDuration = testRefreshable
	return cfg
}

type testEngine struct {
	*Engine
	clock      *fakeClock
	principals *fakePrincipals
	store      *revocation.MemoryStore
}

func newTestEngine(t testing.TB, mutate ...func(*Builder)) *testEngine {
	t.Helper()

	clock := newFakeClock()
	principals := &fakePrincipals{users: []fakePrincipal{
		{id: "u-1", email: "ada@example.com", name: "ada", password: "correct horse"},
		{id: "u-2", email: "bob@example.com", name: "bob", password: "battery staple"},
	}}
	store := revocation.NewMemoryStore(revocation.WithClock(clock.Now))
	t.Cleanup(func() { _ = store.Close() })

	b := New().
		WithConfig(testConfig()).
		WithClock(clock).
		WithPrincipalStore(principals).
		WithRevocationStore(store)
	for _, m := range mutate {
		m(b)
	}

	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(e.Close)

	return &testEngine{Engine: e, clock: clock, principals: principals, store: store}
}

func (te *testEngine) login(t testing.TB) *LoginResult {
	t.Helper()
	res, err := te.Login(context.Background(), "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return res
}
