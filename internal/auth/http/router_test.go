package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	authhttp "github.com/redbrickhq/gatehouse/internal/auth/http"
	"github.com/redbrickhq/gatehouse/internal/auth/service"
	"github.com/redbrickhq/gatehouse/internal/auth/store"
	"github.com/redbrickhq/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/redbrickhq/gatehouse/pkg/cryptox"
	"github.com/redbrickhq/gatehouse/pkg/jwtx"
	"github.com/redbrickhq/gatehouse/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status    int             `json:"status"`
	Message   string          `json:"message"`
	Code      string          `json:"code"`
	Timestamp string          `json:"timestamp"`
	Body      json.RawMessage `json:"body"`
}

type tokenBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	UserID       string `json:"user_id"`
	IsNewUser    bool   `json:"is_new_user"`
}

type harness struct {
	router *authhttp.Router
	store  store.Store
	codec  *jwtx.Codec
}

// staticResolver maps authorization codes to canned identities.
type staticResolver map[string]service.Identity

func (s staticResolver) Resolve(_ context.Context, provider, code string) (service.Identity, error) {
	id, ok := s[code]
	if !ok || id.Provider != provider {
		return service.Identity{}, errors.New("code exchange rejected")
	}
	return id, nil
}

func newHarness(t *testing.T, opts ...jwtx.Option) *harness {
	return newHarnessRedirect(t, "", opts...)
}

func newHarnessRedirect(t *testing.T, redirectURL string, opts ...jwtx.Option) *harness {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "auth.db")
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	key, err := cryptox.ParseEd25519PrivateKeyPEM(pemKey)
	require.NoError(t, err)
	codec, err := jwtx.NewCodec("gatehouse-test", key, opts...)
	require.NoError(t, err)

	logger := slogx.New(slogx.Config{Service: "gatehouse-test", Level: "error"})

	r := authhttp.NewRouter(codec, "test", st, logger)
	r.RedirectURL = redirectURL
	r.UserService = service.NewUserService(st)
	r.TokenService = service.NewTokenService(codec, st)
	r.Resolver = staticResolver{
		"good-code": {
			Provider: "kakao",
			SocialID: "sid-777",
			Email:    "social@example.com",
			Nickname: "soc",
		},
	}
	r.ApplyRoutes()

	return &harness{router: r, store: st, codec: codec}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func tokens(t *testing.T, env envelope) tokenBody {
	t.Helper()
	var tb tokenBody
	require.NoError(t, json.Unmarshal(env.Body, &tb))
	return tb
}

func TestSignupLoginLifecycle(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodPost, "/signup", "",
		map[string]string{"email": "ada@example.com", "password": "s3cret", "nickname": "ada"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "CREATED_USER", env.Code)
	require.Equal(t, rec.Code, env.Status)
	require.NotEmpty(t, env.Timestamp)

	t.Run("duplicate signup", func(t *testing.T) {
		rec, env := h.do(t, http.MethodPost, "/signup", "",
			map[string]string{"email": "ada@example.com", "password": "x", "nickname": "ada"})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "DUPLICATE_USER", env.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec, env := h.do(t, http.MethodPost, "/login", "",
			map[string]string{"email": "ada@example.com", "password": "nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "LOGIN_FAILED", env.Code)
	})

	rec, env = h.do(t, http.MethodPost, "/login", "",
		map[string]string{"email": "ada@example.com", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "LOGIN_SUCCESS", env.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	tb := tokens(t, env)
	require.Equal(t, "Bearer", tb.TokenType)
	require.Positive(t, tb.ExpiresIn)

	t.Run("auth check with fresh token", func(t *testing.T) {
		rec, env := h.do(t, http.MethodGet, "/auth", tb.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "READ_IS_LOGIN", env.Code)

		var body struct {
			UserID string `json:"user_id"`
			Role   string `json:"role"`
		}
		require.NoError(t, json.Unmarshal(env.Body, &body))
		require.NotEmpty(t, body.UserID)
		require.Equal(t, "USER", body.Role)
	})

	t.Run("password change round trip", func(t *testing.T) {
		rec, env := h.do(t, http.MethodPatch, "/password", tb.AccessToken,
			map[string]string{"current_password": "wrong", "new_password": "next"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "LOGIN_FAILED", env.Code)

		rec, env = h.do(t, http.MethodPatch, "/password", tb.AccessToken,
			map[string]string{"current_password": "s3cret", "new_password": "next"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "UPDATE_PASSWORD", env.Code)

		rec, _ = h.do(t, http.MethodPost, "/login", "",
			map[string]string{"email": "ada@example.com", "password": "next"})
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUnauthenticatedAccess(t *testing.T) {
	h := newHarness(t)

	t.Run("protected route without token", func(t *testing.T) {
		rec, env := h.do(t, http.MethodGet, "/auth", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "UNAUTHORIZED", env.Code)
	})

	t.Run("garbage bearer token", func(t *testing.T) {
		rec, env := h.do(t, http.MethodGet, "/auth", "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "UNAUTHORIZED", env.Code)
	})

	t.Run("unknown route keeps envelope shape", func(t *testing.T) {
		// The catch-all is USER-protected, so an anonymous probe 401s
		// rather than revealing whether the path exists.
		rec, env := h.do(t, http.MethodGet, "/nope", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "UNAUTHORIZED", env.Code)
	})

	t.Run("health checks need nothing", func(t *testing.T) {
		rec, env := h.do(t, http.MethodGet, "/livez", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "HEALTHY", env.Code)

		rec, env = h.do(t, http.MethodGet, "/readyz", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "HEALTHY", env.Code)
	})
}

func TestExpiredTokenAndReissue(t *testing.T) {
	// Access tokens expire almost immediately; refresh tokens live on.
	h := newHarness(t, jwtx.WithAccessTTL(time.Millisecond))

	_, _ = h.do(t, http.MethodPost, "/signup", "",
		map[string]string{"email": "exp@example.com", "password": "pw", "nickname": "e"})
	_, env := h.do(t, http.MethodPost, "/login", "",
		map[string]string{"email": "exp@example.com", "password": "pw"})
	first := tokens(t, env)

	var userID string
	{
		claims, err := h.codec.ParseRefresh(first.RefreshToken)
		require.NoError(t, err)
		userID = claims.Subject
	}

	time.Sleep(5 * time.Millisecond)

	t.Run("expired access token is rejected", func(t *testing.T) {
		rec, env := h.do(t, http.MethodGet, "/auth", first.AccessToken, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "UNAUTHORIZED", env.Code)
	})

	t.Run("reissue works even with the expired token attached", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{
			"user_id": userID, "refresh_token": first.RefreshToken,
		}))
		req := httptest.NewRequest(http.MethodPost, "/reissue", &buf)
		req.Header.Set("Authorization", "Bearer "+first.AccessToken)

		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var env envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		require.Equal(t, "REISSUE_SUCCESS", env.Code)
		second := tokens(t, env)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)

		// Rotation killed the old refresh token.
		rec2, env2 := h.do(t, http.MethodPost, "/reissue", "",
			map[string]string{"user_id": userID, "refresh_token": first.RefreshToken})
		require.Equal(t, http.StatusUnauthorized, rec2.Code)
		require.Equal(t, "INVALID_REFRESH_TOKEN", env2.Code)

		// The new one is live.
		rec3, env3 := h.do(t, http.MethodPost, "/reissue", "",
			map[string]string{"user_id": userID, "refresh_token": second.RefreshToken})
		require.Equal(t, http.StatusOK, rec3.Code)
		require.Equal(t, "REISSUE_SUCCESS", env3.Code)
	})

	t.Run("reissue for unknown user", func(t *testing.T) {
		rec, env := h.do(t, http.MethodPost, "/reissue", "",
			map[string]string{"user_id": "missing", "refresh_token": "x"})
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "NOT_FOUND_USER", env.Code)
	})
}

func TestSocialLoginAndPromotion(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodGet, "/oauth2/callback/kakao?code=good-code", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OAUTH_LOGIN_SUCCESS", env.Code)

	first := tokens(t, env)
	require.True(t, first.IsNewUser)
	require.NotEmpty(t, first.UserID)

	t.Run("guest role before promotion", func(t *testing.T) {
		_, env := h.do(t, http.MethodGet, "/auth", first.AccessToken, nil)
		var body struct {
			Role string `json:"role"`
		}
		require.NoError(t, json.Unmarshal(env.Body, &body))
		require.Equal(t, "GUEST", body.Role)
	})

	t.Run("guest cannot reach member routes", func(t *testing.T) {
		rec, env := h.do(t, http.MethodPatch, "/password", first.AccessToken,
			map[string]string{"current_password": "a", "new_password": "b"})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "FORBIDDEN", env.Code)
	})

	rec, env = h.do(t, http.MethodPost, "/oauth2/signup", first.AccessToken,
		map[string]string{"nickname": "finished"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "SIGNUP_COMPLETE", env.Code)
	promoted := tokens(t, env)

	t.Run("fresh tokens carry the new role", func(t *testing.T) {
		_, env := h.do(t, http.MethodGet, "/auth", promoted.AccessToken, nil)
		var body struct {
			Role string `json:"role"`
		}
		require.NoError(t, json.Unmarshal(env.Body, &body))
		require.Equal(t, "USER", body.Role)
	})

	t.Run("promotion is single-shot", func(t *testing.T) {
		rec, env := h.do(t, http.MethodPost, "/oauth2/signup", promoted.AccessToken,
			map[string]string{"nickname": "again"})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "ROLE_NOT_ELIGIBLE", env.Code)
	})

	t.Run("returning user is not new", func(t *testing.T) {
		_, env := h.do(t, http.MethodGet, "/oauth2/callback/kakao?code=good-code", "", nil)
		again := tokens(t, env)
		require.False(t, again.IsNewUser)
		require.Equal(t, first.UserID, again.UserID)
	})

	t.Run("bad code gives one generic rejection", func(t *testing.T) {
		rec, env := h.do(t, http.MethodGet, "/oauth2/callback/kakao?code=bad-code", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "OAUTH_LOGIN_FAILED", env.Code)
	})
}

func TestCallbackRedirectMode(t *testing.T) {
	h := newHarnessRedirect(t, "https://app.example.com/oauth")

	rec, _ := h.do(t, http.MethodGet, "/oauth2/callback/kakao?code=good-code", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "app.example.com", loc.Host)

	q := loc.Query()
	require.NotEmpty(t, q.Get("access_token"))
	require.NotEmpty(t, q.Get("refresh_token"))
	require.Equal(t, "true", q.Get("is_new_user"))
}
