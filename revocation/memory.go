package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore keeps revocations in process memory. A record counts until its
// expiry passes on the store clock; the cache evicts it after the same span.
type MemoryStore struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, time.Time]
	now   func() time.Time
}

// NewMemoryStore starts a MemoryStore. Call Close to stop its eviction loop.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := applyOptions(opts)

	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, time.Time](),
	)
	go cache.Start()

	return &MemoryStore{
		cache: cache,
		now:   o.now,
	}
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.PutIfAbsent(ctx, jti, expiresAt)
	return err
}

// PutIfAbsent implements ConditionalStore.
func (s *MemoryStore) PutIfAbsent(_ context.Context, jti string, expiresAt time.Time) (bool, error) {
	if jti == "" {
		return false, ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live(jti) {
		return false, nil
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return true, nil
	}
	s.cache.Set(jti, expiresAt, ttl)
	return true, nil
}

// Contains implements Store.
func (s *MemoryStore) Contains(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return s.live(jti), nil
}

func (s *MemoryStore) live(jti string) bool {
	item := s.cache.Get(jti)
	return item != nil && item.Value().After(s.now())
}

// Prune implements Pruner. It drops records whose expiry is not after now.
func (s *MemoryStore) Prune(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.cache.Len()
	s.cache.DeleteExpired()
	n := int64(before - s.cache.Len())
	for jti, item := range s.cache.Items() {
		if !item.Value().After(now) {
			s.cache.Delete(jti)
			n++
		}
	}
	return n, nil
}

// Len returns the number of records currently held.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Close stops the eviction loop.
func (s *MemoryStore) Close() error {
	s.cache.Stop()
	return nil
}
