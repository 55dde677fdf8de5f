package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultChallengeTTL = 5 * time.Minute

type challengeEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryChallengeStore keeps login ceremony challenges in process memory.
// It does not survive restarts and cannot serve multiple stateless replicas;
// deployments beyond one instance must use the persistence-backed store
// instead.
type MemoryChallengeStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]challengeEntry
}

func NewMemoryChallengeStore(ttl time.Duration) *MemoryChallengeStore {
	if ttl <= 0 {
		ttl = defaultChallengeTTL
	}
	return &MemoryChallengeStore{
		ttl:     ttl,
		entries: map[string]challengeEntry{},
	}
}

func (s *MemoryChallengeStore) Put(_ context.Context, key string, value []byte) error {
	if s == nil {
		return fmt.Errorf("core: challenge store is not configured")
	}
	key = normalizeChallengeKey(key)
	if len(value) == 0 {
		return fmt.Errorf("core: challenge value is required")
	}

	s.mu.Lock()
	s.entries[key] = challengeEntry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().UTC().Add(s.ttl),
	}
	s.mu.Unlock()

	return nil
}

func (s *MemoryChallengeStore) Take(_ context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, fmt.Errorf("core: challenge store is not configured")
	}
	key = normalizeChallengeKey(key)

	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	if !ok {
		return nil, false, nil
	}
	if time.Now().UTC().After(entry.expiresAt) {
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

func normalizeChallengeKey(key string) string {
	trimmed := strings.TrimSpace(strings.ToLower(key))
	if trimmed == "" {
		return ChallengeKeyGlobal
	}
	return trimmed
}
