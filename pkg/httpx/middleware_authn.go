package httpx

import (
	"net/http"
	"strings"

	"github.com/redbrickhq/gatehouse/pkg/jwtx"
)

// Verifier validates an access token and returns its claims.
type Verifier interface {
	ParseAccess(token string) (jwtx.Claims, error)
}

// AuthGate extracts and validates the bearer token, establishes the
// request principal, and enforces the matched rule's access policy.
// Per-request state machine: Unauthenticated → Authenticated.
//
// A missing or non-Bearer Authorization header leaves the request
// anonymous; whether that is acceptable is the matched rule's call. A
// supplied-but-invalid token is different: it is recorded at the
// exception boundary and the request is short-circuited, so a bad
// token 401s even on anonymous routes, unless the route is exempted by
// the rule table.
//
// Role requirements come from the same rule that decided visibility,
// so the table in the router is the single source of truth and cannot
// drift from the guards.
func AuthGate(v Verifier, rules RuleSet) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule := rules.MatchRequest(r)
			if rule.Visibility == SkipInspection {
				next.ServeHTTP(w, r)
				return
			}

			authz := r.Header.Get("Authorization")
			if authz != "" && strings.HasPrefix(authz, "Bearer ") {
				raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

				claims, err := v.ParseAccess(raw)
				if err != nil {
					if !FailAuth(r.Context(), err) {
						WriteEnvelope(w, http.StatusUnauthorized,
							CodeUnauthorized, "invalid or expired token", nil)
					}
					return
				}

				ctx := WithPrincipal(r.Context(), Principal{
					UserID: claims.Subject,
					Role:   claims.Role,
				})
				r = r.WithContext(ctx)
			}

			if rule.Visibility == Protected && !authorize(w, r, rule) {
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// authorize enforces a Protected rule's role requirement, writing the
// rejection itself. Reports whether the request may proceed.
func authorize(w http.ResponseWriter, r *http.Request, rule RouteRule) bool {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		WriteEnvelope(w, http.StatusUnauthorized,
			CodeUnauthorized, "authentication required", nil)
		return false
	}

	if rule.ExactRole {
		if p.Role != rule.MinRole {
			WriteEnvelope(w, http.StatusForbidden,
				CodeRoleNotEligible, "role is not eligible for this operation", nil)
			return false
		}
		return true
	}

	if !p.Role.AtLeast(rule.MinRole) {
		WriteEnvelope(w, http.StatusForbidden,
			CodeForbidden, "insufficient role", nil)
		return false
	}
	return true
}
