package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/redbrickhq/gatehouse/internal/auth/service"
	"github.com/redbrickhq/gatehouse/pkg/httpx"
	"github.com/redbrickhq/gatehouse/pkg/slogx"
)

// ReissueHandler serves POST /reissue. The route is exempt from access
// token inspection: an expired access token is the normal reason to be
// here, so the refresh token in the body is the only credential checked.
type ReissueHandler struct {
	TokenService *service.TokenService
}

type reissueRequest struct {
	UserID       string `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

func (h *ReissueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req reissueRequest
	if err := decodeJSON(r, &req); err != nil {
		codeBadRequest.write(w, nil)
		return
	}
	if strings.TrimSpace(req.UserID) == "" || req.RefreshToken == "" {
		codeBadRequest.write(w, nil)
		return
	}

	pair, err := h.TokenService.Reissue(ctx, req.UserID, req.RefreshToken)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		codeNotFoundUser.write(w, nil)
		return
	case errors.Is(err, service.ErrRefreshMismatch),
		errors.Is(err, service.ErrRefreshExpired),
		errors.Is(err, service.ErrRefreshInvalid):
		codeRefreshInvalid.write(w, nil)
		return
	case err != nil:
		log.Error("reissue failed", "error", err, "user_id", req.UserID)
		codeInternalError.write(w, nil)
		return
	}

	httpx.NoCache(w)
	codeReissueSuccess.write(w, newTokenResponse(pair))
}
