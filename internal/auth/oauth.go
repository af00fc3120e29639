package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
)

// discordEndpoint is Discord's OAuth 2.0 authorization-code endpoint pair.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// DiscordUser is the portion of Discord's /users/@me response we care about.
// Discord serializes its snowflake IDs as strings to survive JSON number
// precision limits.
type DiscordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"` // "0" for accounts migrated off discriminators
	Avatar        string `json:"avatar"`        // avatar hash, empty if unset
}

// Identity converts the Discord profile into the identity the auth layer
// stores: numeric user ID plus a display name qualified with the
// discriminator where one still exists.
func (u *DiscordUser) Identity() (Identity, error) {
	id, err := strconv.ParseInt(u.ID, 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: parsing Discord user id %q: %w", u.ID, err)
	}

	username := u.Username
	if u.Discriminator != "" && u.Discriminator != "0" {
		username = u.Username + "#" + u.Discriminator
	}

	return Identity{
		ID:         id,
		Username:   username,
		AvatarHash: u.Avatar,
	}, nil
}

// DiscordProvider wraps golang.org/x/oauth2 for the Discord Authorization
// Code flow with the "identify" scope — we only read the user's ID, name,
// and avatar, nothing else.
type DiscordProvider struct {
	config *oauth2.Config
}

// NewDiscordProvider creates a DiscordProvider with the given application
// credentials. callbackURL must exactly match a redirect URI registered on
// the Discord application.
func NewDiscordProvider(clientID, clientSecret, callbackURL string) *DiscordProvider {
	return &DiscordProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"identify"},
			Endpoint:     discordEndpoint,
		},
	}
}

// AuthURL returns the Discord authorization URL to redirect the browser to.
// state is the CSRF token the callback handler verifies.
func (p *DiscordProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange completes the OAuth flow: trades the authorization code for an
// access token, then fetches the user's profile from /users/@me. The access
// token is used once, server-to-server, and discarded.
func (p *DiscordProvider) Exchange(ctx context.Context, code string) (*DiscordUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://discord.com/api/users/@me")
	if err != nil {
		return nil, fmt.Errorf("auth: calling Discord /users/@me: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Discord /users/@me returned status %d", resp.StatusCode)
	}

	var user DiscordUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("auth: decoding Discord /users/@me response: %w", err)
	}

	if user.ID == "" {
		return nil, fmt.Errorf("auth: Discord returned a user with no id")
	}

	return &user, nil
}
