// Package auth builds the authentication headers of outgoing API requests.
//
// The Root Signals API accepts an API key in the Authorization header using
// the "Api-Key" scheme. Short-lived JWT bearer tokens are supported as well;
// they are inspected before use so that an expired token fails locally
// instead of costing a round trip.
//
// # Credentials
//
// Every credential implements Credentials:
//
//	type Credentials interface {
//	    Name() string
//	    Apply(ctx context.Context, header http.Header) error
//	}
//
// APIKey and BearerToken are the built-in implementations. Chain applies
// several credentials in order, and Static sets fixed headers.
//
// # Transport
//
// Transport is an http.RoundTripper that stamps DefaultHeaders and the
// configured credentials onto each request. Credentials attached to the
// request context with WithCredentials take precedence for that call.
//
//	rt := auth.NewTransport(auth.NewAPIKey(key, auth.APIKeyConfig{}), nil)
//	client := &http.Client{Transport: rt}
package auth
