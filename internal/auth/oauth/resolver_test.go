package oauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"

	"github.com/redbrickhq/gatehouse/internal/auth/oauth"
	"github.com/stretchr/testify/require"
)

// fakeProvider stands in for a social provider's token and userinfo
// endpoints.
func fakeProvider(t *testing.T, userinfo string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "valid-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"provider-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(userinfo))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newRegistry(srv *httptest.Server, p oauth.Provider) *oauth.Registry {
	p.Config = &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	p.UserInfoURL = srv.URL + "/userinfo"
	return oauth.NewRegistry(map[string]oauth.Provider{"fake": p})
}

func TestResolveDefaultFieldNames(t *testing.T) {
	srv := fakeProvider(t, `{"sub":"u-1","email":"a@example.com","name":"ada","picture":"https://img/1"}`)
	reg := newRegistry(srv, oauth.Provider{})

	id, err := reg.Resolve(context.Background(), "fake", "valid-code")
	require.NoError(t, err)
	require.Equal(t, "fake", id.Provider)
	require.Equal(t, "u-1", id.SocialID)
	require.Equal(t, "a@example.com", id.Email)
	require.Equal(t, "ada", id.Nickname)
	require.Equal(t, "https://img/1", id.ImageURL)
}

func TestResolveNestedFieldPaths(t *testing.T) {
	// Kakao-shaped document: numeric top-level id, email nested under
	// kakao_account, nickname and image under properties.
	srv := fakeProvider(t, `{
		"id": 987654321,
		"kakao_account": {"email": "nested@example.com", "profile": {"is_default_image": false}},
		"properties": {"nickname": "kak", "profile_image": "https://img/kak"}
	}`)
	reg := newRegistry(srv, oauth.Provider{
		IDField:       "id",
		EmailField:    "kakao_account.email",
		NicknameField: "properties.nickname",
		ImageField:    "properties.profile_image",
	})

	id, err := reg.Resolve(context.Background(), "fake", "valid-code")
	require.NoError(t, err)
	require.Equal(t, "987654321", id.SocialID)
	require.Equal(t, "nested@example.com", id.Email)
	require.Equal(t, "kak", id.Nickname)
	require.Equal(t, "https://img/kak", id.ImageURL)
}

func TestResolveMissingAndNullFieldsReadEmpty(t *testing.T) {
	// A github user with a private email sends "email": null.
	srv := fakeProvider(t, `{"id": 42, "email": null, "login": "octo"}`)
	reg := newRegistry(srv, oauth.Provider{IDField: "id", NicknameField: "login"})

	id, err := reg.Resolve(context.Background(), "fake", "valid-code")
	require.NoError(t, err)
	require.Equal(t, "42", id.SocialID)
	require.Empty(t, id.Email)
	require.Equal(t, "octo", id.Nickname)
	require.Empty(t, id.ImageURL)
}

func TestResolveCustomFieldsAndNumericID(t *testing.T) {
	srv := fakeProvider(t, `{"id":123456789,"kakao_email":"k@example.com"}`)
	reg := newRegistry(srv, oauth.Provider{IDField: "id", EmailField: "kakao_email"})

	id, err := reg.Resolve(context.Background(), "fake", "valid-code")
	require.NoError(t, err)
	require.Equal(t, "123456789", id.SocialID)
	require.Equal(t, "k@example.com", id.Email)
}

func TestResolveFailures(t *testing.T) {
	srv := fakeProvider(t, `{"email":"no-subject@example.com"}`)
	reg := newRegistry(srv, oauth.Provider{})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := reg.Resolve(context.Background(), "ghost", "valid-code")
		require.Error(t, err)
	})

	t.Run("rejected code", func(t *testing.T) {
		_, err := reg.Resolve(context.Background(), "fake", "stolen-code")
		require.Error(t, err)
	})

	t.Run("profile without subject id", func(t *testing.T) {
		_, err := reg.Resolve(context.Background(), "fake", "valid-code")
		require.Error(t, err)
	})
}
