package cache

import (
	"strings"
	"time"
)

// Policy configures caching behavior.
type Policy struct {
	// DefaultTTL is the TTL to use when none is specified.
	// If zero, caching is disabled by default.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration

	// MaxEntries bounds the number of entries held by a MemoryCache.
	// If zero, the cache is unbounded.
	MaxEntries int

	// Methods lists the cacheable HTTP methods.
	// Default: GET, HEAD
	Methods []string
}

// DefaultPolicy returns the default caching policy.
// DefaultTTL: 30 seconds, MaxTTL: 5 minutes, MaxEntries: 1000, Methods: GET, HEAD
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 30 * time.Second,
		MaxTTL:     5 * time.Minute,
		MaxEntries: 1000,
		Methods:    []string{"GET", "HEAD"},
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// Cacheable reports whether responses to method may be cached. An empty
// Methods list allows GET and HEAD.
func (p Policy) Cacheable(method string) bool {
	methods := p.Methods
	if len(methods) == 0 {
		methods = []string{"GET", "HEAD"}
	}
	for _, m := range methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
