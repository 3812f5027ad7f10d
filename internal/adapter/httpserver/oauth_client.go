package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pscheid92/moodscope/internal/domain"
	"github.com/pscheid92/moodscope/internal/platform/config"
	"golang.org/x/oauth2"
)

const (
	httpCallTimeout    = 10 * time.Second
	maxUserInfoPayload = 1 << 20
)

// oauthClient runs the authorization code flow against the identity provider.
type oauthClient interface {
	AuthCodeURL(state string) string
	Authenticate(ctx context.Context, code string) (*domain.UserProfile, error)
}

type oauth2Client struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func newOAuthClient(cfg *config.Config) *oauth2Client {
	return &oauth2Client{
		config: &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       cfg.Scopes(),
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OAuthAuthURL,
				TokenURL: cfg.OAuthTokenURL,
			},
		},
		userInfoURL: cfg.OAuthUserInfoURL,
		httpClient:  &http.Client{Timeout: httpCallTimeout},
	}
}

func (c *oauth2Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Authenticate exchanges the authorization code and fetches the user's profile.
func (c *oauth2Client) Authenticate(ctx context.Context, code string) (*domain.UserProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	profile, err := c.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("user info fetch failed: %w", err)
	}
	return profile, nil
}

func (c *oauth2Client) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*domain.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var claims map[string]any
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoPayload))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return profileFromClaims(claims)
}

// profileFromClaims maps OIDC standard claims, falling back to the
// snake_case names some providers use.
func profileFromClaims(claims map[string]any) (*domain.UserProfile, error) {
	profile := &domain.UserProfile{
		Subject:         claimString(claims, "sub", "id"),
		Email:           claimString(claims, "email"),
		FirstName:       claimString(claims, "given_name", "first_name"),
		LastName:        claimString(claims, "family_name", "last_name"),
		ProfileImageURL: claimString(claims, "picture", "profile_image_url"),
	}
	if profile.Subject == "" {
		return nil, errors.New("userinfo response has no subject")
	}
	return profile, nil
}

func claimString(claims map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}
