package principal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/teamer-dev/authsession"
	"github.com/teamer-dev/authsession/password"
)

// ErrDuplicate is returned when the email or name is already taken.
var ErrDuplicate = errors.New("principal already exists")

// Hasher is implemented by *password.Bcrypt.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

type record struct {
	id    string
	name  string
	email string
	hash  string
}

// MemoryStore keeps principals in process memory. It suits tests, the load
// generator and small deployments seeded from configuration.
type MemoryStore struct {
	mu      sync.RWMutex
	hasher  Hasher
	byID    map[string]*record
	byEmail map[string]*record
	byName  map[string]*record

	// dummy is compared against when the identifier is unknown so both
	// paths pay for one hash check.
	dummy string
}

// NewMemoryStore returns an empty store. A nil hasher uses bcrypt at the
// default cost.
func NewMemoryStore(hasher Hasher) (*MemoryStore, error) {
	if hasher == nil {
		hasher = &password.Bcrypt{}
	}
	dummy, err := dummyHash(hasher)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{
		hasher:  hasher,
		byID:    make(map[string]*record),
		byEmail: make(map[string]*record),
		byName:  make(map[string]*record),
		dummy:   dummy,
	}, nil
}

func dummyHash(hasher Hasher) (string, error) {
	dummy, err := hasher.Hash("authsession-dummy-password")
	if err != nil {
		return "", fmt.Errorf("hash dummy password: %w", err)
	}
	return dummy, nil
}

// Add registers a principal and returns it with a generated id.
func (s *MemoryStore) Add(name, email, plain string) (authsession.Principal, error) {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return authsession.Principal{}, err
	}
	return s.AddHashed(uuid.NewString(), name, email, hash)
}

// AddHashed registers a principal with a precomputed hash and a fixed id.
func (s *MemoryStore) AddHashed(id, name, email, hash string) (authsession.Principal, error) {
	email = normalize(email)
	name = strings.TrimSpace(name)
	if id == "" || (email == "" && name == "") {
		return authsession.Principal{}, errors.New("principal needs an id and an email or name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; ok {
		return authsession.Principal{}, ErrDuplicate
	}
	if _, ok := s.byEmail[email]; ok && email != "" {
		return authsession.Principal{}, ErrDuplicate
	}
	if _, ok := s.byName[name]; ok && name != "" {
		return authsession.Principal{}, ErrDuplicate
	}

	r := &record{id: id, name: name, email: email, hash: hash}
	s.byID[id] = r
	if email != "" {
		s.byEmail[email] = r
	}
	if name != "" {
		s.byName[name] = r
	}
	return authsession.Principal{ID: id, Email: email}, nil
}

func (s *MemoryStore) Authenticate(_ context.Context, identifier, plain string) (authsession.Principal, error) {
	s.mu.RLock()
	r, ok := s.byEmail[normalize(identifier)]
	if !ok {
		r, ok = s.byName[strings.TrimSpace(identifier)]
	}
	s.mu.RUnlock()

	if !ok {
		_, _ = s.hasher.Verify(plain, s.dummy)
		return authsession.Principal{}, authsession.ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(plain, r.hash)
	if err != nil {
		return authsession.Principal{}, err
	}
	if !match {
		return authsession.Principal{}, authsession.ErrInvalidCredentials
	}
	return authsession.Principal{ID: r.id, Email: r.email}, nil
}

func (s *MemoryStore) GetPrincipalByID(_ context.Context, id string) (authsession.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return authsession.Principal{}, authsession.ErrPrincipalNotFound
	}
	return authsession.Principal{ID: r.id, Email: r.email}, nil
}

// Remove deletes a principal. Tokens already issued to it fail their next
// refresh.
func (s *MemoryStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	delete(s.byEmail, r.email)
	delete(s.byName, r.name)
	return true
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
