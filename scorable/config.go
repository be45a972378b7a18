package scorable

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/root-signals/rs-sdk/auth"
	"github.com/root-signals/rs-sdk/cache"
	"github.com/root-signals/rs-sdk/observe"
	"github.com/root-signals/rs-sdk/resilience"
	"github.com/root-signals/rs-sdk/secret"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://api.app.rootsignals.ai"

	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second

	// DefaultAPIKeyRef reads the key from the environment, then from .env.
	DefaultAPIKeyRef = "${ROOTSIGNALS_API_KEY:-secretref:dotenv:ROOTSIGNALS_API_KEY}"

	// DefaultBaseURLRef lets the environment override the base URL.
	DefaultBaseURLRef = "${ROOTSIGNALS_API_URL:-" + DefaultBaseURL + "}"
)

// Config configures a Client.
type Config struct {
	// APIKey authenticates requests. Environment references and secret refs
	// are resolved, e.g. "secretref:env:MY_KEY".
	// Default: DefaultAPIKeyRef
	APIKey string

	// BaseURL is the API root.
	// Default: DefaultBaseURLRef
	BaseURL string

	// Timeout bounds a single HTTP exchange. Negative values are rejected.
	// Default: 30s
	Timeout time.Duration

	// UserAgent overrides auth.DefaultUserAgent.
	UserAgent string

	// Retry configures the client's RetryManager.
	Retry []resilience.RetryOption

	// RateLimit configures the client's RateLimiter.
	RateLimit []resilience.RateLimitOption

	// Credentials replaces API key authentication, e.g. with a bearer token.
	Credentials auth.Credentials

	// RoundTripper is the HTTP transport below authentication.
	RoundTripper http.RoundTripper

	// Transport replaces the HTTP transport entirely. No API key is required.
	Transport Transport

	// Logger receives request, retry and rate limit events.
	// Default: Observer.Logger() when an Observer is set, otherwise no-op.
	Logger observe.Logger

	// Observer supplies tracing and metrics.
	Observer observe.Observer

	// Cache enables response caching of reads. A successful write evicts the
	// cached reads of its path and parent collection. Responses served from
	// the cache carry only the body (see Response.Cached). A shared read
	// keeps running after its first caller gives up, bounded by Timeout.
	Cache cache.Cache

	// CachePolicy governs Cache. The zero value selects cache.DefaultPolicy.
	CachePolicy cache.Policy

	// Resolver resolves APIKey and BaseURL.
	// Default: secret.NewDefaultResolver()
	Resolver *secret.Resolver
}

// Validate reports configuration errors. It is called by New after
// references are resolved.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.Transport == nil {
		if _, err := parseBaseURL(c.BaseURL); err != nil {
			return err
		}
		if c.Credentials == nil && c.APIKey == "" {
			return ErrMissingAPIKey
		}
	}
	return nil
}

// resolve applies defaults and resolves secret references.
func (c Config) resolve(ctx context.Context) (Config, error) {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Transport != nil {
		return c, nil
	}

	resolver := c.Resolver
	if resolver == nil {
		r, err := secret.NewDefaultResolver()
		if err != nil {
			return c, err
		}
		defer r.Close()
		resolver = r
	}

	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURLRef
	}
	baseURL, err := resolver.ResolveValue(ctx, c.BaseURL)
	if err != nil {
		return c, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	c.BaseURL = baseURL

	if c.Credentials != nil {
		return c, nil
	}
	if c.APIKey == "" {
		c.APIKey = DefaultAPIKeyRef
	}
	key, err := resolver.ResolveValue(ctx, c.APIKey)
	if err != nil {
		return c, fmt.Errorf("%w: %w", ErrMissingAPIKey, err)
	}
	c.APIKey = key
	return c, nil
}
