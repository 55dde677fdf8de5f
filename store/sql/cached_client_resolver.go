package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-bankauth/core"
)

const clientCacheKeyPrefix = "go-bankauth::client::v1"

// cachedClient is the cache entry shape; found is stored too so negative
// lookups are cached and a hammered unknown client id does not hit the
// database per request.
type cachedClient struct {
	Client core.Client
	Found  bool
}

// CachedClientResolver is a read-through cache in front of a base resolver:
// check cache, else query the store, else absent. Client mutations must go
// through Invalidate so stale display metadata does not outlive an update.
type CachedClientResolver struct {
	base  core.ClientResolver
	cache repositorycache.CacheService
}

func NewCachedClientResolver(
	base core.ClientResolver,
	cacheService repositorycache.CacheService,
) (*CachedClientResolver, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base client resolver is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: client cache service is required")
	}
	return &CachedClientResolver{base: base, cache: cacheService}, nil
}

// ClientCacheKey returns the deterministic cache key contract for client
// reads: go-bankauth::client::v1::<client_id> with the id URL-path escaped.
func ClientCacheKey(clientID string) (string, error) {
	trimmed := strings.TrimSpace(clientID)
	if trimmed == "" {
		return "", fmt.Errorf("sqlstore: client id is required")
	}
	return clientCacheKeyPrefix + "::" + url.PathEscape(trimmed), nil
}

func (r *CachedClientResolver) Resolve(ctx context.Context, clientID string) (core.Client, bool, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return core.Client{}, false, fmt.Errorf("sqlstore: cached client resolver is not configured")
	}
	cacheKey, err := ClientCacheKey(clientID)
	if err != nil {
		return core.Client{}, false, err
	}

	entry, err := repositorycache.GetOrFetch(ctx, r.cache, cacheKey, func(ctx context.Context) (cachedClient, error) {
		client, found, fetchErr := r.base.Resolve(ctx, clientID)
		if fetchErr != nil {
			return cachedClient{}, fetchErr
		}
		return cachedClient{Client: client, Found: found}, nil
	})
	if err != nil {
		return core.Client{}, false, err
	}
	return entry.Client, entry.Found, nil
}

// Invalidate drops the cache entry for a client after a mutation.
func (r *CachedClientResolver) Invalidate(ctx context.Context, clientID string) error {
	if r == nil || r.cache == nil {
		return fmt.Errorf("sqlstore: cached client resolver is not configured")
	}
	cacheKey, err := ClientCacheKey(clientID)
	if err != nil {
		return err
	}
	return r.cache.Delete(ctx, cacheKey)
}
