package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Provider is an OAuth identity provider.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (User, error)
}

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleProvider signs users in with Google, always showing the account
// chooser.
type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider creates a Google provider.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// WithEndpoints points the provider at different OAuth and userinfo URLs.
func (p *GoogleProvider) WithEndpoints(endpoint oauth2.Endpoint, userInfoURL string) *GoogleProvider {
	p.oauth.Endpoint = endpoint
	p.userInfoURL = userInfoURL
	return p
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (User, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return User{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return User{}, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return User{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return User{}, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return User{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return User{}, fmt.Errorf("userinfo has no subject")
	}
	if info.Email != "" && !info.EmailVerified {
		return User{}, fmt.Errorf("email %s is not verified", info.Email)
	}
	return User{UID: info.Sub, Email: info.Email, DisplayName: info.Name}, nil
}
