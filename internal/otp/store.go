// Package otp implements the single-use verification code store used by the
// vendor registration flow.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// TTL is how long an issued code stays valid.
const TTL = 5 * time.Minute

// Store issues and verifies single-use codes keyed by recipient identity.
// Issue overwrites any prior unexpired code for the identity; only the
// latest code is valid. Verify consumes the entry on success.
type Store interface {
	Issue(ctx context.Context, identity string) (string, error)
	Verify(ctx context.Context, identity, code string) (bool, error)
}

// GenerateCode returns a random six-digit numeric code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

type entry struct {
	code   string
	expiry time.Time
}

// MemoryStore keeps codes in a process-local map. State does not survive a
// restart and is not shared between instances; deployments running more
// than one replica must use the redis store instead.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty code store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Issue generates a code for identity valid for TTL, replacing any prior one.
func (s *MemoryStore) Issue(_ context.Context, identity string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[identity] = entry{code: code, expiry: s.now().Add(TTL)}
	return code, nil
}

// Verify checks the code for identity. The entry is consumed on success and
// evicted on expiry; a mismatching code leaves it in place.
func (s *MemoryStore) Verify(_ context.Context, identity, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[identity]
	if !ok {
		return false, nil
	}
	if s.now().After(e.expiry) {
		delete(s.entries, identity)
		return false, nil
	}
	if e.code != code {
		return false, nil
	}
	delete(s.entries, identity)
	return true, nil
}

// Sweep evicts expired entries. It is scheduled periodically so abandoned
// codes do not accumulate.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for identity, e := range s.entries {
		if now.After(e.expiry) {
			delete(s.entries, identity)
			removed++
		}
	}
	return removed
}
