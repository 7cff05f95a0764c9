package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/redbrickhq/gatehouse/internal/auth/service"
	"github.com/redbrickhq/gatehouse/pkg/slogx"
)

// SignupHandler serves POST /signup. Creates a password-based account;
// the caller still has to log in to get tokens.
type SignupHandler struct {
	UserService *service.UserService
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		codeBadRequest.write(w, nil)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		codeBadRequest.write(w, nil)
		return
	}

	user, err := h.UserService.Signup(ctx, req.Email, req.Password, req.Nickname)
	switch {
	case errors.Is(err, service.ErrDuplicateLogin):
		codeDuplicateUser.write(w, nil)
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		codeBadRequest.write(w, nil)
		return
	case err != nil:
		log.Error("signup failed", "error", err)
		codeInternalError.write(w, nil)
		return
	}

	codeCreatedUser.write(w, map[string]string{"user_id": user.ID})
}
