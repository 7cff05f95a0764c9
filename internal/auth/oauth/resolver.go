// Package oauth exchanges social provider authorization codes for
// verified identities.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/redbrickhq/gatehouse/internal/auth/service"
)

// Provider describes one social login integration: the OAuth2 exchange
// config plus where and how to read the user's profile afterwards.
type Provider struct {
	Config      *oauth2.Config
	UserInfoURL string

	// Field paths inside the userinfo JSON document, dotted for nested
	// objects (e.g. "kakao_account.email"). IDField is required; the
	// rest default to the conventional OIDC names.
	IDField       string
	EmailField    string
	NicknameField string
	ImageField    string
}

// Registry resolves identities across a fixed set of named providers.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers map[string]Provider) *Registry {
	return &Registry{providers: providers}
}

// Resolve swaps an authorization code for the provider's view of the
// user. Implements the callback handler's IdentityResolver.
func (r *Registry) Resolve(ctx context.Context, provider, code string) (service.Identity, error) {
	p, ok := r.providers[provider]
	if !ok {
		return service.Identity{}, fmt.Errorf("unknown provider %q", provider)
	}

	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return service.Identity{}, fmt.Errorf("exchange code with %s: %w", provider, err)
	}

	profile, err := fetchUserInfo(ctx, p, token)
	if err != nil {
		return service.Identity{}, fmt.Errorf("fetch %s profile: %w", provider, err)
	}

	id := service.Identity{
		Provider: provider,
		SocialID: stringField(profile, p.idField()),
		Email:    stringField(profile, p.emailField()),
		Nickname: stringField(profile, p.nicknameField()),
		ImageURL: stringField(profile, p.imageField()),
	}
	if id.SocialID == "" {
		return service.Identity{}, fmt.Errorf("%s profile carries no subject id", provider)
	}
	return id, nil
}

func fetchUserInfo(ctx context.Context, p Provider, token *oauth2.Token) (map[string]any, error) {
	client := p.Config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint answered %d", resp.StatusCode)
	}

	var profile map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (p Provider) idField() string       { return orDefault(p.IDField, "sub") }
func (p Provider) emailField() string    { return orDefault(p.EmailField, "email") }
func (p Provider) nicknameField() string { return orDefault(p.NicknameField, "name") }
func (p Provider) imageField() string    { return orDefault(p.ImageField, "picture") }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// stringField reads a JSON field by dotted path (kakao nests profile
// data under kakao_account/properties), stringifying numeric ids the
// way some providers emit them. Missing or null segments, like a
// github email kept private, read as empty.
func stringField(doc map[string]any, path string) string {
	cur := any(doc)
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[key]
	}

	switch v := cur.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
