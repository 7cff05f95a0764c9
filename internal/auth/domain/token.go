package domain

import "time"

// TokenPair is what token-issuing endpoints return: a short-lived
// signed access token and the long-lived refresh token. Access tokens
// are never persisted server-side; the refresh token is stored against
// the owning user.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"` // always "Bearer"
	ExpiresIn    time.Duration `json:"-"`

	// AccessExpiresAt mirrors ExpiresIn as an absolute instant for
	// clients that prefer not to do the arithmetic.
	AccessExpiresAt time.Time `json:"access_expires_at"`
}
