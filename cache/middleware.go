package cache

import (
	"context"
	"maps"
	"net/url"
	pathpkg "path"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// FetchFunc performs the request when the cache cannot answer it.
type FetchFunc func(ctx context.Context) ([]byte, error)

// SkipRule determines whether to bypass the cache for a request.
// Returns true if caching should be skipped.
type SkipRule func(method, path string) bool

// UncachedPathSegments mark read endpoints whose responses must always be
// fresh.
var UncachedPathSegments = []string{"download", "status"}

// DefaultSkipRule skips paths containing one of UncachedPathSegments.
// Matching is case-insensitive.
func DefaultSkipRule(_ string, path string) bool {
	for _, seg := range strings.Split(strings.ToLower(path), "/") {
		for _, skip := range UncachedPathSegments {
			if seg == skip {
				return true
			}
		}
	}
	return false
}

// Stats counts cache outcomes.
type Stats struct {
	Hits    int64 // answered from the cache
	Misses  int64 // fetches performed for cacheable reads
	Shared  int64 // callers whose fetch result was shared with another caller
	Bypass  int64 // requests that skipped the cache
	Evicted int64 // cached reads invalidated by a write
}

// maxIndexedKeys bounds the keys tracked per path before expired ones are
// pruned.
const maxIndexedKeys = 1024

// CacheMiddleware wraps API reads with caching.
//
// Concurrent misses for the same key are collapsed into one fetch; every
// waiter receives the same body. The fetch is not cancelled when the caller
// that started it gives up, so it must be bounded by its own timeout.
//
// Successful requests with a non-cacheable method invalidate every cached
// read of the same path and of its parent collection, query-filtered reads
// included.
type CacheMiddleware struct {
	cache    Cache
	keyer    Keyer
	policy   Policy
	skipRule SkipRule
	group    singleflight.Group

	mu   sync.Mutex
	keys map[string]map[string]struct{} // resource path -> stored keys

	hits, misses, shared, bypass, evicted atomic.Int64
}

// NewCacheMiddleware creates a cache middleware. A nil keyer selects
// RequestKey and a nil skipRule selects DefaultSkipRule.
func NewCacheMiddleware(cache Cache, keyer Keyer, policy Policy, skipRule SkipRule) *CacheMiddleware {
	if keyer == nil {
		keyer = RequestKey
	}
	if skipRule == nil {
		skipRule = DefaultSkipRule
	}
	return &CacheMiddleware{
		cache:    cache,
		keyer:    keyer,
		policy:   policy,
		skipRule: skipRule,
	}
}

// Execute answers a read from the cache, calling fetch on a miss and
// storing its body. Errors are never cached. Writes always call fetch and,
// on success, evict the cached reads of path and its parent collection.
// A caller whose ctx is done stops waiting with ctx.Err() while a shared
// fetch carries on for the others.
func (m *CacheMiddleware) Execute(
	ctx context.Context,
	method, path string,
	query url.Values,
	fetch FetchFunc,
) ([]byte, error) {
	if m.cache == nil || !m.policy.ShouldCache() || m.skipRule(method, path) {
		m.bypass.Add(1)
		return fetch(ctx)
	}

	if !m.policy.Cacheable(method) {
		m.bypass.Add(1)
		result, err := fetch(ctx)
		if err == nil {
			m.invalidate(ctx, path)
		}
		return result, err
	}

	key := m.keyer(method, path, query)
	if ValidateKey(key) != nil {
		m.bypass.Add(1)
		return fetch(ctx)
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		m.hits.Add(1)
		return cached, nil
	}

	// The fetch outlives any single waiter: it runs detached from the
	// caller that started it, and each waiter stops on its own ctx.
	fetchCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		m.misses.Add(1)
		result, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if ttl := m.policy.EffectiveTTL(0); ttl > 0 {
			_ = m.cache.Set(fetchCtx, key, result, ttl)
			m.index(fetchCtx, path, key)
		}
		return result, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			m.shared.Add(1)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate removes every cached read of path and of its parent
// collection.
func (m *CacheMiddleware) Invalidate(ctx context.Context, path string) {
	if m.cache == nil {
		return
	}
	m.invalidate(ctx, path)
}

func (m *CacheMiddleware) invalidate(ctx context.Context, path string) {
	res := resourcePath(path)
	for _, p := range []string{res, pathpkg.Dir(res)} {
		keys := m.unindex(p)
		for _, method := range []string{"GET", "HEAD"} {
			if m.policy.Cacheable(method) {
				keys[m.keyer(method, p, nil)] = struct{}{}
			}
		}
		for key := range keys {
			if _, ok := m.cache.Get(ctx, key); ok {
				m.evicted.Add(1)
			}
			_ = m.cache.Delete(ctx, key)
		}
	}
}

// resourcePath folds "/v1/judges/" and "/v1/judges" together.
func resourcePath(path string) string {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "/"
	}
	return path
}

func (m *CacheMiddleware) index(ctx context.Context, path, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keys == nil {
		m.keys = make(map[string]map[string]struct{})
	}
	res := resourcePath(path)
	set := m.keys[res]
	if set == nil {
		set = make(map[string]struct{})
		m.keys[res] = set
	}
	if len(set) >= maxIndexedKeys {
		for _, k := range slices.Collect(maps.Keys(set)) {
			if _, ok := m.cache.Get(ctx, k); !ok {
				delete(set, k)
			}
		}
	}
	set[key] = struct{}{}
}

// unindex removes and returns the keys stored for a resource path.
func (m *CacheMiddleware) unindex(res string) map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.keys[res]
	delete(m.keys, res)
	if set == nil {
		set = make(map[string]struct{})
	}
	return set
}

// Stats returns a snapshot of the cache counters.
func (m *CacheMiddleware) Stats() Stats {
	return Stats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Shared:  m.shared.Load(),
		Bypass:  m.bypass.Load(),
		Evicted: m.evicted.Load(),
	}
}
