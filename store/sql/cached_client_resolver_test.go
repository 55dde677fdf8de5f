package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-bankauth/core"
)

type stubClientResolver struct {
	mu           sync.Mutex
	clients      map[string]core.Client
	resolveCalls int
	resolveErr   error
}

func (r *stubClientResolver) Resolve(_ context.Context, clientID string) (core.Client, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolveCalls++
	if r.resolveErr != nil {
		return core.Client{}, false, r.resolveErr
	}
	client, ok := r.clients[clientID]
	return client, ok, nil
}

func TestCachedClientResolver_MissFetchThenHit(t *testing.T) {
	cacheService := newTestClientCacheService(t)
	base := &stubClientResolver{
		clients: map[string]core.Client{
			"demo-bank-web": {ClientID: "demo-bank-web", Name: "Demo Bank", Active: true},
		},
	}

	resolver, err := NewCachedClientResolver(base, cacheService)
	if err != nil {
		t.Fatalf("new cached client resolver: %v", err)
	}

	client, found, err := resolver.Resolve(context.Background(), "demo-bank-web")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if !found || client.Name != "Demo Bank" {
		t.Fatalf("expected resolved client, got found=%v client=%+v", found, client)
	}
	if base.resolveCalls != 1 {
		t.Fatalf("expected first resolve to hit base once, got %d", base.resolveCalls)
	}

	if _, _, err := resolver.Resolve(context.Background(), "demo-bank-web"); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if base.resolveCalls != 1 {
		t.Fatalf("expected second resolve to be cache hit, base calls=%d", base.resolveCalls)
	}
}

func TestCachedClientResolver_CachesNegativeLookups(t *testing.T) {
	cacheService := newTestClientCacheService(t)
	base := &stubClientResolver{clients: map[string]core.Client{}}

	resolver, err := NewCachedClientResolver(base, cacheService)
	if err != nil {
		t.Fatalf("new cached client resolver: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, found, resolveErr := resolver.Resolve(context.Background(), "ghost-client")
		if resolveErr != nil {
			t.Fatalf("resolve %d: %v", i, resolveErr)
		}
		if found {
			t.Fatalf("expected unknown client to stay absent")
		}
	}
	if base.resolveCalls != 1 {
		t.Fatalf("expected negative lookup to be cached, base calls=%d", base.resolveCalls)
	}
}

func TestCachedClientResolver_InvalidateForcesRefetch(t *testing.T) {
	cacheService := newTestClientCacheService(t)
	base := &stubClientResolver{
		clients: map[string]core.Client{
			"demo-bank-web": {ClientID: "demo-bank-web", Name: "Demo Bank", Active: true},
		},
	}

	resolver, err := NewCachedClientResolver(base, cacheService)
	if err != nil {
		t.Fatalf("new cached client resolver: %v", err)
	}

	if _, _, err := resolver.Resolve(context.Background(), "demo-bank-web"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if base.resolveCalls != 1 {
		t.Fatalf("expected one base read after prime, got %d", base.resolveCalls)
	}

	base.mu.Lock()
	base.clients["demo-bank-web"] = core.Client{ClientID: "demo-bank-web", Name: "Demo Bank Renamed", Active: true}
	base.mu.Unlock()

	if err := resolver.Invalidate(context.Background(), "demo-bank-web"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	client, found, err := resolver.Resolve(context.Background(), "demo-bank-web")
	if err != nil {
		t.Fatalf("resolve after invalidate: %v", err)
	}
	if !found || client.Name != "Demo Bank Renamed" {
		t.Fatalf("expected refreshed client metadata, got found=%v client=%+v", found, client)
	}
	if base.resolveCalls != 2 {
		t.Fatalf("expected invalidated key to force second base read, got %d", base.resolveCalls)
	}
}

func TestClientCacheKey_Contract(t *testing.T) {
	key, err := ClientCacheKey(" demo bank/web ")
	if err != nil {
		t.Fatalf("build cache key: %v", err)
	}

	const expected = "go-bankauth::client::v1::demo%20bank%2Fweb"
	if key != expected {
		t.Fatalf("unexpected cache key contract: got %q want %q", key, expected)
	}

	if _, err := ClientCacheKey("   "); err == nil {
		t.Fatalf("expected blank client id to be rejected")
	}
}

func TestCachedClientResolver_PropagatesBaseErrors(t *testing.T) {
	cacheService := newTestClientCacheService(t)
	baseErr := errors.New("store offline")
	base := &stubClientResolver{resolveErr: baseErr}

	resolver, err := NewCachedClientResolver(base, cacheService)
	if err != nil {
		t.Fatalf("new cached client resolver: %v", err)
	}

	_, _, err = resolver.Resolve(context.Background(), "demo-bank-web")
	if !errors.Is(err, baseErr) {
		t.Fatalf("expected base error propagation, got %v", err)
	}
}

func newTestClientCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
