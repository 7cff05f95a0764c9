package http

import (
	"errors"
	"net/http"

	"github.com/redbrickhq/gatehouse/internal/auth/service"
	"github.com/redbrickhq/gatehouse/pkg/httpx"
	"github.com/redbrickhq/gatehouse/pkg/slogx"
)

// LoginHandler serves POST /login. Verifies credentials and issues a
// fresh token pair, replacing any refresh token the user held before.
type LoginHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		codeBadRequest.write(w, nil)
		return
	}

	user, err := h.UserService.Login(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		codeLoginFailed.write(w, nil)
		return
	case err != nil:
		log.Error("login failed", "error", err)
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
	codeLoginSuccess.write(w, newTokenResponse(pair))
}
