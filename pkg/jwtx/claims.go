package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/redbrickhq/gatehouse/pkg/idx"
)

// Default token TTLs. Access tokens are short-lived; refresh tokens
// long-lived. Both can be overridden per-codec.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Kind distinguishes access tokens from refresh tokens. It is encoded
// into the claims so one can never be replayed as the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims are the token claims used across the service.
type Claims struct {
	jwt.RegisteredClaims

	// Role the subject held when the token was minted. Promotion only
	// shows up in tokens minted afterwards.
	Role Role `json:"role,omitempty"`

	// Kind is "access" or "refresh".
	Kind Kind `json:"kind,omitempty"`
}

// newClaims builds minimally-correct claims for a subject at a fixed
// instant. Timestamps are second-granularity on the wire.
func newClaims(subject string, role Role, kind Kind, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role: role,
		Kind: kind,
	}
}

// NewJTI returns a unique identifier for the "jti" claim. ULIDs give
// uniqueness plus a mint-time ordering that helps when grepping logs.
func NewJTI() string {
	return idx.New().String()
}
