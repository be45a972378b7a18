package auth

import (
	"context"
	"net/http"
)

// Header names and schemes used by the API.
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderUserAgent     = "User-Agent"

	SchemeAPIKey = "Api-Key"
	SchemeBearer = "Bearer"

	// DefaultUserAgent identifies this SDK.
	DefaultUserAgent = "rs-sdk-go/0.1.4"
)

// Credentials attach authentication to an outgoing request.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: a credential that cannot be used returns an error wrapping one
//     of the package sentinels and leaves the header untouched.
type Credentials interface {
	// Name identifies the credential kind, e.g. "api_key".
	Name() string

	// Apply writes the credential into header.
	Apply(ctx context.Context, header http.Header) error
}

// DefaultHeaders returns the headers sent with every request.
// An empty userAgent selects DefaultUserAgent.
func DefaultHeaders(userAgent string) http.Header {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	h := make(http.Header, 2)
	h.Set(HeaderContentType, "application/json")
	h.Set(HeaderUserAgent, userAgent)
	return h
}

// Static is a credential that sets fixed header values.
type Static http.Header

// Name returns "static".
func (s Static) Name() string {
	return "static"
}

// Apply sets every header of s, replacing existing values.
func (s Static) Apply(_ context.Context, header http.Header) error {
	for k, v := range s {
		header.Del(k)
		for _, val := range v {
			header.Add(k, val)
		}
	}
	return nil
}

// Ensure Static implements Credentials
var _ Credentials = Static(nil)
