// Package cache provides a response cache for idempotent API reads.
//
// It provides a Cache interface with a memory implementation, SHA-256-based
// key derivation from the request method, path and query, TTL policies, and
// a middleware that de-duplicates concurrent identical reads.
package cache
