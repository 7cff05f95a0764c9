package http

import (
	"errors"
	"net/http"

	"github.com/redbrickhq/gatehouse/internal/auth/service"
	"github.com/redbrickhq/gatehouse/pkg/httpx"
	"github.com/redbrickhq/gatehouse/pkg/slogx"
)

// PasswordHandler serves PATCH /password for the authenticated user.
type PasswordHandler struct {
	UserService *service.UserService
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, ok := httpx.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteEnvelope(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required", nil)
		return
	}

	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		codeBadRequest.write(w, nil)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		codeBadRequest.write(w, nil)
		return
	}

	err := h.UserService.UpdatePassword(ctx, p.UserID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		codeLoginFailed.write(w, nil)
		return
	case errors.Is(err, service.ErrUserNotFound):
		codeNotFoundUser.write(w, nil)
		return
	case err != nil:
		log.Error("password update failed", "error", err, "user_id", p.UserID)
		codeInternalError.write(w, nil)
		return
	}

	codeUpdatePassword.write(w, nil)
}
