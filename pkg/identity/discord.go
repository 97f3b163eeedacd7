package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// DiscordProvider wraps the OAuth2 authorization-code flow against Discord.
type DiscordProvider struct {
	oauth   *oauth2.Config
	apiBase string
}

func NewDiscordProvider(clientID, clientSecret, redirectURL, apiBase string) *DiscordProvider {
	apiBase = strings.TrimRight(apiBase, "/")
	if apiBase == "" {
		apiBase = "https://discord.com/api"
	}
	return &DiscordProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://discord.com/oauth2/authorize",
				TokenURL:  apiBase + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase: apiBase,
	}
}

func (p *DiscordProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none"))
}

func (p *DiscordProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.oauth.Exchange(ctx, code)
}

type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar"`
}

// FetchUser reads /users/@me. 429 and 5xx map to ErrNotReady, 401/403 to
// ErrRejected.
func (p *DiscordProvider) FetchUser(ctx context.Context, tok *oauth2.Token) (*Identity, error) {
	client := p.oauth.Client(ctx, tok)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+"/users/@me", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: discord returned %d", ErrNotReady, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: discord returned %d", ErrRejected, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("discord /users/@me: %d %s", resp.StatusCode, string(body))
	}

	var u discordUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode discord user: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("%w: discord user without id", ErrRejected)
	}

	display := u.GlobalName
	if display == "" {
		display = u.Username
	}
	return &Identity{
		UserID:      u.ID,
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: display,
		Avatar:      u.Avatar,
	}, nil
}
