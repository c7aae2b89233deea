package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	// Discord endpoint will be defined manually
)

// ===== Discord OAuth =====

// DefaultDiscordBaseURL is the provider origin used when Config.ProviderBaseURL is empty.
const DefaultDiscordBaseURL = "https://discord.com"

// discordScope is the only scope requested; it grants access to /users/@me.
const discordScope = "identify"

// DiscordUserInfo represents the user information returned by the Discord API endpoint `/users/@me`.
// See: https://discord.com/developers/docs/resources/user#user-object
type DiscordUserInfo struct {
	ID         string `json:"id"`          // The user's unique ID (snowflake).
	Username   string `json:"username"`    // The user's username.
	GlobalName string `json:"global_name"` // The user's display name, if set.
}

// discordProvider implements the Provider interface for Discord.
type discordProvider struct {
	handler      *OAuthHandler
	oauth2Config *oauth2.Config
	userInfoURL  string
}

func (d *discordProvider) AuthURL(ctx context.Context, state string) string {
	return d.oauth2Config.AuthCodeURL(state)
}

func (d *discordProvider) Login(ctx context.Context, code string) (*User, error) {
	return d.handler.discordLoginWithCode(ctx, d, code)
}

// fetchDiscordUserInfo retrieves the authenticated user's profile information from the Discord API (`/users/@me`).
// It requires an authorized http.Client (obtained via OAuth token).
func fetchDiscordUserInfo(ctx context.Context, client *http.Client, userInfoURL string) (*DiscordUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute user info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("failed to get user info: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var userInfo DiscordUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode user info response: %w", err)
	}
	return &userInfo, nil
}

// discordLoginWithCode handles the final step of the Discord OAuth flow.
// It exchanges the authorization code for an access token and fetches the user's
// profile from the Discord API. Both calls share the provider HTTP client and the
// caller's deadline.
// Returns errors wrapping ErrFailedToExchangeCode, ErrFailedToGetUserInfo or ErrMissingUserID.
func (o *OAuthHandler) discordLoginWithCode(ctx context.Context, d *discordProvider, code string) (*User, error) {
	logger := o.logEnricher(ctx, o.logger).Named("discord_login")

	// oauth2 picks the HTTP client for the exchange out of the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.config.HTTPClient)

	// Exchange the code for an OAuth token
	token, err := d.oauth2Config.Exchange(ctx, code, oauth2.SetAuthURLParam("scope", discordScope))
	if err != nil {
		logger.Error("Failed to exchange code for token", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFailedToExchangeCode, err)
	}

	if !token.Valid() {
		logger.Error("Received invalid token")
		return nil, fmt.Errorf("%w: received invalid token from provider", ErrFailedToExchangeCode)
	}

	// Use the token to get an HTTP client
	client := d.oauth2Config.Client(ctx, token)
	client.Timeout = o.config.Timeout

	discordUser, err := fetchDiscordUserInfo(ctx, client, d.userInfoURL)
	if err != nil {
		logger.Error("Failed to get Discord user info", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFailedToGetUserInfo, err)
	}
	if discordUser.ID == "" {
		logger.Error("Discord user info has no id")
		return nil, ErrMissingUserID
	}

	// Determine the best username (GlobalName or fallback to Username)
	username := discordUser.GlobalName
	if username == "" {
		username = discordUser.Username
	}

	logger.Info("Discord login successful", zap.String("discord_id", discordUser.ID), zap.String("discord_username", username))
	return &User{ID: discordUser.ID, Username: username}, nil
}

// registerDiscordOAuth creates the oauth2.Config for Discord from the handler config.
// It manually defines the Discord endpoints relative to the provider base URL and
// sends client credentials in the form body, as Discord's token endpoint expects.
// Missing credentials are logged, not fatal: the provider rejects the exchange later.
func (o *OAuthHandler) registerDiscordOAuth(ctx context.Context) *discordProvider {
	logger := o.logEnricher(ctx, o.logger).Named("register_discord")
	if o.config.ClientID == "" || o.config.ClientSecret == "" {
		logger.Warn("Discord OAuth client ID or secret missing; token exchange will fail")
	}

	base := strings.TrimRight(o.config.ProviderBaseURL, "/")
	if base == "" {
		base = DefaultDiscordBaseURL
	}

	d := &discordProvider{
		handler: o,
		oauth2Config: &oauth2.Config{
			ClientID:     o.config.ClientID,
			ClientSecret: o.config.ClientSecret,
			RedirectURL:  o.config.CallbackURL,
			Scopes:       []string{discordScope},
			Endpoint: oauth2.Endpoint{ // Manually define Discord endpoints
				AuthURL:   base + "/oauth2/authorize",
				TokenURL:  base + "/api/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: base + "/api/users/@me",
	}

	logger.Info("Discord OAuth handler registered", zap.String("base_url", base), zap.Int("allowed_users", o.allowList.Len()))
	return d
}
