// Package revocation implements the JWT blacklist C4 consults on every
// local-JWT resolution (spec §1.11: logout blacklists a token's jti for its
// remaining lifetime). It holds no other cached data.
//
// Grounded on the "blacklisted jti" table the teacher's oauth2/store.go
// keeps for fosite, generalized into a small interface per the abstraction
// the kernel's concurrency model calls for (spec §1.12: revocation must be
// observable within one round-trip, and a process-local map cannot satisfy
// that across multiple kernel instances without an external backing store).
package revocation

import (
	"context"
	"sync"
	"time"
)

// Set is the abstraction every blacklist/short-TTL-cache consumer in the
// kernel depends on, so the backing implementation (in-process vs Redis)
// can be swapped per deployment without touching call sites.
type Set interface {
	// Add blacklists key for ttl.
	Add(ctx context.Context, key string, ttl time.Duration) error
	// Contains reports whether key is currently blacklisted.
	Contains(ctx context.Context, key string) (bool, error)
}

// memorySet is a single-process implementation, correct only when exactly
// one kernel instance is running. It exists for local development and
// tests; multi-instance deployments must set CACHE_URL to get the
// Redis-backed implementation in redis.go.
type memorySet struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

// NewMemorySet builds an in-process revocation set.
func NewMemorySet() Set {
	return &memorySet{expires: make(map[string]time.Time)}
}

func (m *memorySet) Add(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires[key] = time.Now().Add(ttl)
	return nil
}

func (m *memorySet) Contains(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.expires[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(m.expires, key)
		return false, nil
	}
	return true, nil
}
