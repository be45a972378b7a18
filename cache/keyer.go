package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"slices"
	"strings"
)

// Keyer derives the cache key of a read. Equal requests must map to equal
// keys and a Keyer must be safe for concurrent use.
type Keyer func(method, path string, query url.Values) string

// RequestScope names the endpoint of a request: the upper-cased method and
// the path without a trailing slash.
func RequestScope(method, path string) string {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}
	return strings.ToUpper(method) + " " + path
}

// RequestKey is the default Keyer. Keys have the form
//
//	cache:<scope>:<hash>
//
// where hash is 16 hex digits of SHA-256 over the query. Neither parameter
// order nor the order of repeated values matters, and an empty query keys
// like no query.
func RequestKey(method, path string, query url.Values) string {
	sum := sha256.Sum256([]byte(canonicalQuery(query)))
	return "cache:" + RequestScope(method, path) + ":" + hex.EncodeToString(sum[:8])
}

func canonicalQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	sorted := make(url.Values, len(query))
	for k, vs := range query {
		sorted[k] = slices.Sorted(slices.Values(vs))
	}
	// Encode orders by key.
	return sorted.Encode()
}
