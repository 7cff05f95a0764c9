package http

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/redbrickhq/gatehouse/internal/auth/service"
	"github.com/redbrickhq/gatehouse/pkg/httpx"
	"github.com/redbrickhq/gatehouse/pkg/jwtx"
	"github.com/redbrickhq/gatehouse/pkg/slogx"
)

// IdentityResolver exchanges a provider authorization code for a
// verified social profile.
type IdentityResolver interface {
	Resolve(ctx context.Context, provider, code string) (service.Identity, error)
}

// IdentityResolverFunc adapts a function to the IdentityResolver
// interface.
type IdentityResolverFunc func(ctx context.Context, provider, code string) (service.Identity, error)

func (f IdentityResolverFunc) Resolve(ctx context.Context, provider, code string) (service.Identity, error) {
	return f(ctx, provider, code)
}

// OAuth2CallbackHandler serves GET /oauth2/callback/{provider}. It
// completes a social login: the provider's code is exchanged for an
// identity, the matching account is found or created as GUEST, and a
// token pair is issued. Any failure along the way collapses into one
// generic rejection so the response does not reveal which step broke.
//
// With RedirectURL set, the result is handed to the frontend as a 302
// with the tokens in the query string; otherwise it is returned as JSON.
type OAuth2CallbackHandler struct {
	Resolver     IdentityResolver
	UserService  *service.UserService
	TokenService *service.TokenService

	RedirectURL string
}

type oauth2CallbackResponse struct {
	tokenResponse
	UserID    string `json:"user_id"`
	IsNewUser bool   `json:"is_new_user"`
}

func (h *OAuth2CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	provider := r.PathValue("provider")
	code := r.URL.Query().Get("code")
	if provider == "" || code == "" {
		codeBadRequest.write(w, nil)
		return
	}

	identity, err := h.Resolver.Resolve(ctx, provider, code)
	if err != nil {
		log.Warn("social code exchange failed", "provider", provider, "error", err)
		h.fail(w)
		return
	}

	user, _, err := h.UserService.ResolveSocialUser(ctx, identity)
	if err != nil {
		log.Error("social user resolution failed", "provider", provider, "error", err)
		h.fail(w)
		return
	}

	// "New" means the profile-completion step is still owed, so the flag
	// is role-based: a returning user who never completed signup is
	// still routed there.
	isNew := user.Role == jwtx.RoleGuest

	pair, err := h.TokenService.IssuePair(ctx, user)
	if err != nil {
		log.Error("token issue failed", "error", err, "user_id", user.ID)
		h.fail(w)
		return
	}

	httpx.NoCache(w)

	if h.RedirectURL != "" {
		q := url.Values{}
		q.Set("access_token", pair.AccessToken)
		q.Set("refresh_token", pair.RefreshToken)
		q.Set("user_id", user.ID)
		q.Set("is_new_user", strconv.FormatBool(isNew))
		http.Redirect(w, r, h.RedirectURL+"?"+q.Encode(), http.StatusFound)
		return
	}

	codeOAuthLogin.write(w, oauth2CallbackResponse{
		tokenResponse: newTokenResponse(pair),
		UserID:        user.ID,
		IsNewUser:     isNew,
	})
}

// fail writes the one generic rejection shared by every callback
// failure mode. Even in redirect mode errors stay on this service
// rather than bouncing to the frontend with detail in the query string.
func (h *OAuth2CallbackHandler) fail(w http.ResponseWriter) {
	codeOAuthFailed.write(w, nil)
}
