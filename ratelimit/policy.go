// Package ratelimit throttles credential attempts against the login prompt.
// Consecutive failures for the same email earn an exponential lockout;
// a successful login clears the slate.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-bankauth/core"
)

var ErrStateNotFound = errors.New("ratelimit: state not found")

// State is the per-email attempt ledger the policy reads and writes.
type State struct {
	Key            string
	Failures       int
	ThrottledUntil *time.Time
	LastAttemptAt  time.Time
	UpdatedAt      time.Time
}

type StateStore interface {
	Get(ctx context.Context, key string) (State, error)
	Upsert(ctx context.Context, state State) error
}

// ThrottledError reports a refused attempt together with how long the
// caller should wait. It unwraps to core.ErrTooManyAttempts so the
// interaction flow can branch without importing this package.
type ThrottledError struct {
	Key        string
	RetryAfter time.Duration
}

func (e ThrottledError) Error() string {
	return fmt.Sprintf("ratelimit: attempts for %q throttled for %s", e.Key, e.RetryAfter)
}

func (e ThrottledError) Unwrap() error {
	return core.ErrTooManyAttempts
}

func (e ThrottledError) ToAuthError() *goerrors.Error {
	metadata := map[string]any{
		"attempt_key": e.Key,
	}
	if e.RetryAfter > 0 {
		metadata["retry_after_ms"] = e.RetryAfter.Milliseconds()
	}
	return goerrors.New("Too many login attempts, try again later", goerrors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(core.AuthErrorRateLimited).
		WithMetadata(metadata)
}

// AttemptPolicy grants FreeAttempts consecutive failures before locking an
// email out, then doubles the lockout from InitialBackoff up to MaxBackoff.
type AttemptPolicy struct {
	Store          StateStore
	Now            func() time.Time
	FreeAttempts   int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func NewAttemptPolicy(store StateStore) *AttemptPolicy {
	return &AttemptPolicy{
		Store:          store,
		Now:            func() time.Time { return time.Now().UTC() },
		FreeAttempts:   5,
		InitialBackoff: time.Second,
		MaxBackoff:     15 * time.Minute,
	}
}

func (p *AttemptPolicy) BeforeAttempt(ctx context.Context, email string) error {
	if p == nil || p.Store == nil {
		return nil
	}
	key := normalizeAttemptKey(email)
	state, err := p.Store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil
		}
		return err
	}

	now := p.now()
	if until := state.ThrottledUntil; until != nil && now.Before(*until) {
		return ThrottledError{Key: key, RetryAfter: until.Sub(now)}
	}
	return nil
}

func (p *AttemptPolicy) AfterAttempt(ctx context.Context, email string, succeeded bool) error {
	if p == nil || p.Store == nil {
		return nil
	}
	key := normalizeAttemptKey(email)
	now := p.now()

	if succeeded {
		return p.Store.Upsert(ctx, State{
			Key:           key,
			LastAttemptAt: now,
			UpdatedAt:     now,
		})
	}

	state, err := p.Store.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrStateNotFound) {
		return err
	}
	if errors.Is(err, ErrStateNotFound) {
		state = State{Key: key}
	}

	state.Failures++
	state.LastAttemptAt = now
	state.UpdatedAt = now
	state.ThrottledUntil = nil
	if over := state.Failures - p.freeAttempts(); over > 0 {
		until := now.Add(p.nextBackoff(over))
		state.ThrottledUntil = &until
	}
	return p.Store.Upsert(ctx, state)
}

func (p *AttemptPolicy) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *AttemptPolicy) freeAttempts() int {
	if p != nil && p.FreeAttempts > 0 {
		return p.FreeAttempts
	}
	return 5
}

func (p *AttemptPolicy) nextBackoff(excessFailures int) time.Duration {
	initial := p.InitialBackoff
	if initial <= 0 {
		initial = time.Second
	}
	maximum := p.MaxBackoff
	if maximum <= 0 {
		maximum = 15 * time.Minute
	}
	if excessFailures <= 0 {
		return initial
	}
	delay := initial
	for i := 1; i < excessFailures; i++ {
		delay *= 2
		if delay >= maximum {
			return maximum
		}
	}
	if delay > maximum {
		return maximum
	}
	return delay
}

func normalizeAttemptKey(email string) string {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		// Unidentified submissions share one bucket so they cannot dodge
		// the throttle by omitting the email.
		return "__unknown__"
	}
	return key
}

type MemoryStateStore struct {
	mu    sync.RWMutex
	items map[string]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: map[string]State{}}
}

func (s *MemoryStateStore) Get(_ context.Context, key string) (State, error) {
	if s == nil {
		return State{}, fmt.Errorf("ratelimit: state store is nil")
	}
	normalized := normalizeAttemptKey(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.items[normalized]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return state, nil
}

func (s *MemoryStateStore) Upsert(_ context.Context, state State) error {
	if s == nil {
		return fmt.Errorf("ratelimit: state store is nil")
	}
	state.Key = normalizeAttemptKey(state.Key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[state.Key] = state
	return nil
}

// PruneSettled drops entries whose lockout has lapsed and whose last
// attempt predates the cutoff.
func (s *MemoryStateStore) PruneSettled(cutoff time.Time) int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for key, state := range s.items {
		if state.ThrottledUntil != nil && state.ThrottledUntil.After(cutoff) {
			continue
		}
		if state.LastAttemptAt.After(cutoff) {
			continue
		}
		delete(s.items, key)
		pruned++
	}
	return pruned
}

var _ core.LoginGuard = (*AttemptPolicy)(nil)
