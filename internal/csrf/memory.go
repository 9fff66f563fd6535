package csrf

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	token     Token
	expiresAt time.Time
}

const sweepInterval = time.Minute

// MemoryStore keeps tokens in process memory. Expired entries are dropped on
// access and swept from the whole map on Save.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, t Token, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.entries[t.Scope] = memoryEntry{token: t, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, scope string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(scope)
	if !ok {
		return Token{}, ErrNoToken
	}
	t := e.token
	if t.ConsumedAt != nil {
		at := *t.ConsumedAt
		t.ConsumedAt = &at
	}
	return t, nil
}

func (s *MemoryStore) Consume(ctx context.Context, scope, value string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(scope)
	if !ok || e.token.Value != value || e.token.ConsumedAt != nil {
		return false, nil
	}
	e.token.ConsumedAt = &at
	s.entries[scope] = e
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, scope)
	return nil
}

// live must be called with mu held.
func (s *MemoryStore) live(scope string) (memoryEntry, bool) {
	e, ok := s.entries[scope]
	if !ok {
		return memoryEntry{}, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, scope)
		return memoryEntry{}, false
	}
	return e, true
}

// sweep must be called with mu held. Abandoned scopes are never looked up
// again, so they are only reclaimed here.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for scope, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, scope)
		}
	}
}
