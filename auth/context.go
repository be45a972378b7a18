package auth

import (
	"context"
	"net/http"
)

// Context keys for auth-related values.
type contextKey int

const (
	credentialsKey contextKey = iota
	headersKey
)

// WithCredentials returns a new context carrying credentials that replace
// the transport's configured credentials for requests made with it.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey, creds)
}

// CredentialsFromContext retrieves the credentials from the context.
// Returns nil if none are present.
func CredentialsFromContext(ctx context.Context) Credentials {
	c, _ := ctx.Value(credentialsKey).(Credentials)
	return c
}

// WithHeaders returns a new context with extra HTTP headers for requests
// made with it. Extra headers never override authentication.
func WithHeaders(ctx context.Context, headers http.Header) context.Context {
	return context.WithValue(ctx, headersKey, headers)
}

// HeadersFromContext retrieves the extra headers from the context.
// Returns nil if no headers are present.
func HeadersFromContext(ctx context.Context) http.Header {
	h, _ := ctx.Value(headersKey).(http.Header)
	return h
}

// GetHeader retrieves a single extra header value from the context.
// Returns the first value if multiple values exist, or empty string if not found.
func GetHeader(ctx context.Context, key string) string {
	headers := HeadersFromContext(ctx)
	if headers == nil {
		return ""
	}
	return headers.Get(key)
}
