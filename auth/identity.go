package auth

import "time"

// AuthMethod indicates which credential kind produced an Identity.
type AuthMethod string

const (
	AuthMethodAPIKey AuthMethod = "api_key"
	AuthMethodBearer AuthMethod = "bearer"
)

// Identity describes the principal a credential acts for, as far as the
// client can tell without asking the server.
type Identity struct {
	// Principal is the subject claim of the token.
	Principal string

	// Issuer is the token issuer.
	Issuer string

	// Method indicates the credential kind.
	Method AuthMethod

	// Claims contains the raw token claims.
	Claims map[string]any

	// ExpiresAt is when the credential expires (zero = never).
	ExpiresAt time.Time

	// IssuedAt is when the credential was issued.
	IssuedAt time.Time
}

// IsExpired reports whether the identity has expired at now.
func (id *Identity) IsExpired(now time.Time) bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(id.ExpiresAt)
}

// TTL returns the remaining lifetime at now. It is zero for expired
// identities and negative when the identity never expires.
func (id *Identity) TTL(now time.Time) time.Duration {
	if id.ExpiresAt.IsZero() {
		return -1
	}
	if ttl := id.ExpiresAt.Sub(now); ttl > 0 {
		return ttl
	}
	return 0
}
