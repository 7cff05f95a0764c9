package httpx

import (
	"context"

	"github.com/redbrickhq/gatehouse/pkg/jwtx"
)

// Principal is the authenticated identity attached to a request after
// successful token validation. It lives for exactly one request and is
// never persisted.
type Principal struct {
	UserID string
	Role   jwtx.Role
}

type principalKey struct{}

// WithPrincipal attaches the principal to the request context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the request principal, if one was established.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
