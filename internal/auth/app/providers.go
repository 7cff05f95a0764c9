package app

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/kakao"

	"github.com/redbrickhq/gatehouse/internal/auth/oauth"
)

// providerDefaults carries the endpoint and profile layout each
// supported provider ships with. Credentials come from the environment.
var providerDefaults = map[string]oauth.Provider{
	"google": {
		Config:      &oauth2.Config{Endpoint: google.Endpoint, Scopes: []string{"openid", "email", "profile"}},
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
	},
	"kakao": {
		// Kakao nests everything but the numeric id: the email under
		// kakao_account, nickname and image under properties.
		Config:        &oauth2.Config{Endpoint: kakao.Endpoint},
		UserInfoURL:   "https://kapi.kakao.com/v2/user/me",
		IDField:       "id",
		EmailField:    "kakao_account.email",
		NicknameField: "properties.nickname",
		ImageField:    "properties.profile_image",
	},
	"github": {
		Config:        &oauth2.Config{Endpoint: github.Endpoint, Scopes: []string{"read:user", "user:email"}},
		UserInfoURL:   "https://api.github.com/user",
		IDField:       "id",
		NicknameField: "login",
		ImageField:    "avatar_url",
	},
}

// loadProviders builds the social login registry from the environment.
// A provider is enabled by setting AUTH_OAUTH_<NAME>_CLIENT_ID and
// AUTH_OAUTH_<NAME>_CLIENT_SECRET; unset providers stay unroutable.
func loadProviders() map[string]oauth.Provider {
	enabled := make(map[string]oauth.Provider)

	base := strings.TrimSuffix(os.Getenv("AUTH_OAUTH_CALLBACK_BASE"), "/")

	for name, p := range providerDefaults {
		prefix := "AUTH_OAUTH_" + strings.ToUpper(name)
		clientID := os.Getenv(prefix + "_CLIENT_ID")
		if clientID == "" {
			continue
		}

		cfg := *p.Config
		cfg.ClientID = clientID
		cfg.ClientSecret = os.Getenv(prefix + "_CLIENT_SECRET")
		if base != "" {
			cfg.RedirectURL = fmt.Sprintf("%s/oauth2/callback/%s", base, name)
		}

		p.Config = &cfg
		enabled[name] = p
	}

	return enabled
}
