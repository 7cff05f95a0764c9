package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redbrickhq/gatehouse/internal/auth/service"
	"github.com/redbrickhq/gatehouse/internal/auth/store"
	"github.com/redbrickhq/gatehouse/pkg/httpx"
	"github.com/redbrickhq/gatehouse/pkg/jwtx"
	"github.com/redbrickhq/gatehouse/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	TokenService *service.TokenService
	UserService  *service.UserService

	// Resolver exchanges social authorization codes for identities.
	Resolver IdentityResolver

	// RedirectURL, when set, makes the social callback answer with a 302
	// to the frontend instead of a JSON body.
	RedirectURL string
}

// accessRules is the ordered policy table the auth gate consults.
// First match wins, so the exemptions come before the catch-all.
func accessRules() httpx.RuleSet {
	return httpx.RuleSet{
		// Credential and token endpoints carry their own proof; an
		// expired access token in the header must not block them.
		{Method: http.MethodPost, Pattern: "/login", Visibility: httpx.SkipInspection},
		{Method: http.MethodPost, Pattern: "/signup", Visibility: httpx.SkipInspection},
		{Method: http.MethodPost, Pattern: "/reissue", Visibility: httpx.SkipInspection},
		{Pattern: "/oauth2/callback/", Visibility: httpx.SkipInspection},
		{Pattern: "/livez", Visibility: httpx.SkipInspection},
		{Pattern: "/readyz", Visibility: httpx.SkipInspection},

		// Profile completion is the one thing a GUEST may do.
		{Method: http.MethodPost, Pattern: "/oauth2/signup", Visibility: httpx.Protected, MinRole: jwtx.RoleGuest, ExactRole: true},

		// Any authenticated caller may ask who they are.
		{Method: http.MethodGet, Pattern: "/auth", Visibility: httpx.Protected, MinRole: jwtx.RoleGuest},

		// Everything else requires a full member.
		{Pattern: "/", Visibility: httpx.Protected, MinRole: jwtx.RoleUser},
	}
}

func NewRouter(
	codec *jwtx.Codec,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Global chain: request logging outermost, then the rejection
	// boundary, then the gate. The boundary must wrap the gate so gate
	// failures have a sink to land in.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.ExceptionBoundary(),
		httpx.AuthGate(codec, accessRules()),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerTokens()
	r.registerOAuth2()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware
// chain around the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	r.Mux.Handle("POST /signup",
		httpx.Chain(&SignupHandler{UserService: r.UserService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		))

	r.Mux.Handle("POST /login",
		httpx.Chain(&LoginHandler{UserService: r.UserService, TokenService: r.TokenService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		))

	// Role requirements for these live in the accessRules table.
	r.Mux.Handle("GET /auth", &AuthCheckHandler{})
	r.Mux.Handle("PATCH /password", &PasswordHandler{UserService: r.UserService})
}

func (r *Router) registerTokens() {
	r.Mux.Handle("POST /reissue",
		httpx.Chain(&ReissueHandler{TokenService: r.TokenService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
}

func (r *Router) registerOAuth2() {
	r.Mux.Handle("GET /oauth2/callback/{provider}",
		httpx.Chain(&OAuth2CallbackHandler{
			Resolver:     r.Resolver,
			UserService:  r.UserService,
			TokenService: r.TokenService,
			RedirectURL:  r.RedirectURL,
		},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))

	// The accessRules table pins this to exactly GUEST.
	r.Mux.Handle("POST /oauth2/signup",
		&OAuth2SignupHandler{UserService: r.UserService, TokenService: r.TokenService})
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))

	// ServeMux's own 404 is plain text; keep the envelope shape instead.
	// The policy table's catch-all already 401s anonymous probes before
	// this runs, so unknown paths are not revealed to strangers.
	r.Mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		codeNotFoundRoute.write(w, nil)
	})
}
