package http

import (
	"net/http"

	"github.com/redbrickhq/gatehouse/pkg/httpx"
)

// AuthCheckHandler serves GET /auth. Reports who the pipeline decided
// the caller is. Reachable by any authenticated role, GUEST included;
// unauthenticated callers are turned away by the gate before this runs.
type AuthCheckHandler struct{}

type authCheckResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (h *AuthCheckHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := httpx.PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteEnvelope(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required", nil)
		return
	}

	codeReadIsLogin.write(w, authCheckResponse{
		UserID: p.UserID,
		Role:   string(p.Role),
	})
}
