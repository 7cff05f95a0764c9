package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Validation failure taxonomy. Callers must be able to tell an expired
// token (eligible for the reissue flow) from an invalid one (hard
// reject), so these are distinct sentinels.
var (
	ErrMalformed      = errors.New("jwtx: malformed token")
	ErrBadSignature   = errors.New("jwtx: invalid signature")
	ErrUnsupportedAlg = errors.New("jwtx: unsupported signing algorithm")
	ErrExpired        = errors.New("jwtx: token expired")
	ErrWrongKind      = errors.New("jwtx: unexpected token kind")
	ErrInvalidClaims  = errors.New("jwtx: invalid claims")
)

// Codec mints and validates EdDSA-signed tokens. It is pure with respect
// to process state: minting depends only on the wall clock and the key,
// so a single Codec is safe for any number of concurrent requests.
type Codec struct {
	issuer string
	priv   ed25519.PrivateKey
	pub    ed25519.PublicKey

	accessTTL  time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
}

// Option tweaks codec defaults.
type Option func(*Codec)

func WithAccessTTL(d time.Duration) Option  { return func(c *Codec) { c.accessTTL = d } }
func WithRefreshTTL(d time.Duration) Option { return func(c *Codec) { c.refreshTTL = d } }

// WithLeeway allows small clock skew when validating exp/iat.
func WithLeeway(d time.Duration) Option { return func(c *Codec) { c.leeway = d } }

// NewCodec builds a codec from an Ed25519 private key.
func NewCodec(issuer string, key ed25519.PrivateKey, opts ...Option) (*Codec, error) {
	if issuer == "" {
		return nil, errors.New("jwtx: issuer is required")
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.New("jwtx: invalid ed25519 private key")
	}

	c := &Codec{
		issuer:     issuer,
		priv:       key,
		pub:        key.Public().(ed25519.PublicKey),
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the configured lifetime for the given token kind.
func (c *Codec) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

// Mint signs a fresh token of the given kind for the subject.
func (c *Codec) Mint(subject string, role Role, kind Kind) (string, error) {
	return c.MintAt(subject, role, kind, time.Now().UTC())
}

// MintAt is Mint with an explicit issue time, for callers that need a
// fixed clock.
func (c *Codec) MintAt(subject string, role Role, kind Kind, now time.Time) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("jwtx: subject is required: %w", ErrInvalidClaims)
	}
	if !role.Valid() {
		return "", fmt.Errorf("jwtx: unknown role %q: %w", role, ErrInvalidClaims)
	}

	claims := newClaims(subject, role, kind, c.TTL(kind), c.issuer, now)
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(c.priv)
}

// ParseAndValidate verifies the signature, then expiry, then structural
// well-formedness, and returns the claims. Failures map onto the
// sentinel taxonomy above.
func (c *Codec) ParseAndValidate(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, c.keyfunc, jwt.WithLeeway(c.leeway))
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return Claims{}, ErrInvalidClaims
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil ||
		!claims.ExpiresAt.After(claims.IssuedAt.Time) {
		return Claims{}, ErrInvalidClaims
	}
	if claims.Issuer != c.issuer {
		return Claims{}, ErrInvalidClaims
	}

	return claims, nil
}

// ParseAccess validates a token and requires it to be an access token.
func (c *Codec) ParseAccess(token string) (Claims, error) {
	return c.parseKind(token, KindAccess)
}

// ParseRefresh validates a token and requires it to be a refresh token.
func (c *Codec) ParseRefresh(token string) (Claims, error) {
	return c.parseKind(token, KindRefresh)
}

func (c *Codec) parseKind(token string, want Kind) (Claims, error) {
	claims, err := c.ParseAndValidate(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.Kind != want {
		return Claims{}, ErrWrongKind
	}
	return claims, nil
}

func (c *Codec) keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAlg, t.Header["alg"])
	}
	return c.pub, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrUnsupportedAlg):
		return ErrUnsupportedAlg
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrMalformed
	}
}
