package httpx

import (
	"net/http"
	"strings"

	"github.com/redbrickhq/gatehouse/pkg/jwtx"
)

// Visibility says how the auth gate treats a route.
type Visibility int

const (
	// Anonymous routes are reachable without a principal, but a
	// supplied token is still inspected: presenting a bad token on an
	// anonymous route is a 401.
	Anonymous Visibility = iota

	// SkipInspection routes bypass token inspection entirely. Reserved
	// for routes where clients legitimately present expired tokens
	// (reissue) or none at all (health checks, login).
	SkipInspection

	// Protected routes require an authenticated principal holding
	// MinRole (or exactly MinRole when ExactRole is set).
	Protected
)

// RouteRule binds a request matcher to an access policy.
type RouteRule struct {
	Method  string // empty matches any method
	Pattern string // exact path, or prefix match when it ends in "/"

	Visibility Visibility
	MinRole    jwtx.Role
	ExactRole  bool
}

func (rr RouteRule) matches(method, path string) bool {
	if rr.Method != "" && rr.Method != method {
		return false
	}
	if strings.HasSuffix(rr.Pattern, "/") {
		return strings.HasPrefix(path, rr.Pattern)
	}
	return path == rr.Pattern
}

// RuleSet is an ordered access-policy table evaluated first-match-wins.
// Order is semantically load-bearing: more specific patterns must come
// before more general ones, and tables should end with a catch-all.
type RuleSet []RouteRule

// Match returns the first rule matching the request, or a
// default-protected rule when nothing matches.
func (rs RuleSet) Match(method, path string) RouteRule {
	for _, rr := range rs {
		if rr.matches(method, path) {
			return rr
		}
	}
	return RouteRule{Visibility: Protected, MinRole: jwtx.RoleUser}
}

// MatchRequest is Match on an *http.Request.
func (rs RuleSet) MatchRequest(r *http.Request) RouteRule {
	return rs.Match(r.Method, r.URL.Path)
}
