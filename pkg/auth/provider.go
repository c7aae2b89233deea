package auth

import "context"

// Provider defines the interface implemented by the identity provider.
type Provider interface {
	// AuthURL generates the provider-specific authorization URL for the given state.
	// An empty state is omitted from the URL.
	AuthURL(ctx context.Context, state string) string
	// Login exchanges an authorization code for a User.
	Login(ctx context.Context, code string) (*User, error)
}
