package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// APIKeyConfig configures an API key credential.
type APIKeyConfig struct {
	// HeaderName is the header carrying the key.
	// Default: "Authorization"
	HeaderName string

	// Scheme prefixes the key in the header value. Set Raw to send the key
	// without a scheme.
	// Default: "Api-Key"
	Scheme string

	// Raw sends the bare key.
	Raw bool
}

// APIKey authenticates requests with a static API key.
type APIKey struct {
	key    string
	config APIKeyConfig
}

// NewAPIKey creates an API key credential. Surrounding whitespace is
// trimmed from key.
func NewAPIKey(key string, config APIKeyConfig) *APIKey {
	if config.HeaderName == "" {
		config.HeaderName = HeaderAuthorization
	}
	if config.Scheme == "" {
		config.Scheme = SchemeAPIKey
	}

	return &APIKey{
		key:    strings.TrimSpace(key),
		config: config,
	}
}

// Name returns "api_key".
func (a *APIKey) Name() string {
	return "api_key"
}

// Apply sets the configured header to "<scheme> <key>".
func (a *APIKey) Apply(_ context.Context, header http.Header) error {
	if a.key == "" {
		return fmt.Errorf("api key: %w", ErrMissingCredentials)
	}
	if strings.ContainsAny(a.key, " \t\r\n") {
		return fmt.Errorf("api key contains whitespace: %w", ErrInvalidCredentials)
	}

	value := a.key
	if !a.config.Raw {
		value = a.config.Scheme + " " + a.key
	}
	header.Set(a.config.HeaderName, value)
	return nil
}

// Fingerprint returns a short, non-reversible identifier of the key that is
// safe to log.
func (a *APIKey) Fingerprint() string {
	if a.key == "" {
		return ""
	}
	return HashAPIKey(a.key)[:12]
}

// String never reveals the key.
func (a *APIKey) String() string {
	return "api_key:" + a.Fingerprint()
}

// HashAPIKey hashes an API key using SHA-256.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// Ensure APIKey implements Credentials
var _ Credentials = (*APIKey)(nil)
