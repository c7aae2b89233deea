package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// User represents the identity returned by the provider after a successful login.
type User struct {
	ID       string `json:"id"`       // Provider user ID, matched against the allow-list.
	Username string `json:"username"` // Best available display name.
}

// Config holds everything the handler needs for its lifetime. It is read once at
// construction and never mutated afterwards.
type Config struct {
	ClientID     string
	ClientSecret string
	// CallbackURL is the address of this handler, sent as redirect_uri.
	CallbackURL string
	// PanelURL is the protected destination for allow-listed users.
	PanelURL string
	// LoginURL is the page failures are sent to, with an error query parameter.
	LoginURL string
	// ProviderBaseURL overrides https://discord.com (used by tests and proxies).
	ProviderBaseURL string
	// AuthorizedUserIDs is the allow-list of provider user IDs.
	AuthorizedUserIDs []string
	// Timeout bounds the token exchange and identity fetch together.
	Timeout time.Duration
	// HTTPClient is used for provider calls. Defaults to a client with Timeout.
	HTTPClient *http.Client
}

// Predefined errors related to the OAuth process.
var (
	// ErrFailedToExchangeCode indicates an error occurred during the token exchange process.
	ErrFailedToExchangeCode = errors.New("failed to exchange code for token")
	// ErrFailedToGetUserInfo indicates an error occurred while fetching user details from the provider.
	ErrFailedToGetUserInfo = errors.New("failed to get user info")
	// ErrMissingUserID indicates the identity response carried no user ID.
	ErrMissingUserID = errors.New("identity response missing user id")
	// ErrProviderError indicates the provider redirected back with an error other than access_denied.
	ErrProviderError = errors.New("provider returned an error")
)

const defaultTimeout = 10 * time.Second

// OAuthHandler resolves the Discord authorization-code flow and gates the panel
// behind the allow-list. It implements http.Handler.
type OAuthHandler struct {
	provider    Provider                                                  // Discord unless replaced in tests.
	allowList   AllowList                                                 // Immutable set of permitted IDs.
	logger      *zap.Logger                                               // Shared logger instance.
	logEnricher func(ctx context.Context, logger *zap.Logger) *zap.Logger // Adds request-scoped fields.

	config Config // Stores the initial configuration.
}

// NewOAuthHandler creates and initializes a new OAuthHandler instance.
// It requires a zap logger and a Config. Returns nil if the provided config is nil.
// A nil logEnricher leaves the logger untouched.
func NewOAuthHandler(
	logger *zap.Logger,
	logEnricher func(ctx context.Context, logger *zap.Logger) *zap.Logger,
	config *Config,
) *OAuthHandler {

	if config == nil {
		logger.Error("OAuth config is nil")
		return nil
	}
	if logEnricher == nil {
		logEnricher = func(_ context.Context, l *zap.Logger) *zap.Logger { return l }
	}

	cfg := *config
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	// Copy so later changes to the caller's slice cannot leak in.
	cfg.AuthorizedUserIDs = append([]string(nil), config.AuthorizedUserIDs...)

	handler := &OAuthHandler{
		logger:      logger.Named("oauth"),
		config:      cfg,
		logEnricher: logEnricher,
		allowList:   NewAllowList(cfg.AuthorizedUserIDs),
	}
	handler.provider = handler.registerDiscordOAuth(context.Background())
	return handler
}

// AuthURL returns the provider authorization URL the start path redirects to.
func (h *OAuthHandler) AuthURL(ctx context.Context) string {
	return h.provider.AuthURL(ctx, "")
}

// Stop performs any cleanup needed for the OAuthHandler
func (h *OAuthHandler) Stop() {
	h.config.HTTPClient.CloseIdleConnections()
	h.logger.Info("OAuthHandler stopped.")
}
