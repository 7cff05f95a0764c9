package http

import (
	"errors"
	"net/http"

	"github.com/redbrickhq/gatehouse/internal/auth/domain"
	"github.com/redbrickhq/gatehouse/internal/auth/service"
	"github.com/redbrickhq/gatehouse/pkg/httpx"
	"github.com/redbrickhq/gatehouse/pkg/slogx"
)

// OAuth2SignupHandler serves POST /oauth2/signup. A social user who
// came in as GUEST completes their profile here and is promoted to
// USER. The promotion happens exactly once; tokens minted before it
// still say GUEST, so a fresh pair is issued with the new role.
type OAuth2SignupHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
}

type oauth2SignupRequest struct {
	// Nickname is optional; when empty the provider-supplied one stays.
	Nickname string `json:"nickname"`
	Extra1   string `json:"extra1"`
	Extra2   string `json:"extra2"`
	Extra3   string `json:"extra3"`
}

type oauth2SignupResponse struct {
	tokenResponse
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
	Extra1   string `json:"extra1,omitempty"`
	Extra2   string `json:"extra2,omitempty"`
	Extra3   string `json:"extra3,omitempty"`
}

func (h *OAuth2SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, ok := httpx.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteEnvelope(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required", nil)
		return
	}

	var req oauth2SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		codeBadRequest.write(w, nil)
		return
	}

	user, err := h.UserService.CompleteSignup(ctx, p.UserID, domain.Profile{
		Nickname: req.Nickname,
		Extra1:   req.Extra1,
		Extra2:   req.Extra2,
		Extra3:   req.Extra3,
	})
	switch {
	case errors.Is(err, service.ErrRoleNotEligible):
		codeRoleIneligible.write(w, nil)
		return
	case errors.Is(err, service.ErrUserNotFound):
		codeNotFoundUser.write(w, nil)
		return
	case err != nil:
		log.Error("signup completion failed", "error", err, "user_id", p.UserID)
		codeInternalError.write(w, nil)
		return
	}

	pair, err := h.TokenService.IssuePair(ctx, user)
	if err != nil {
		log.Error("token issue failed", "error", err, "user_id", user.ID)
		codeInternalError.write(w, nil)
		return
	}

	httpx.NoCache(w)
	codeSignupComplete.write(w, oauth2SignupResponse{
		tokenResponse: newTokenResponse(pair),
		Nickname:      user.Nickname,
		Role:          string(user.Role),
		Extra1:        user.Extra1,
		Extra2:        user.Extra2,
		Extra3:        user.Extra3,
	})
}
