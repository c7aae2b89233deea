package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// accessDenied is the error value Discord sends when the user cancels consent.
const accessDenied = "access_denied"

// Outcome is the result of resolving one request.
type Outcome int

const (
	// OutcomeAuthorize means no code was present: send the user to the provider.
	OutcomeAuthorize Outcome = iota
	// OutcomeAuthorized means the user is on the allow-list.
	OutcomeAuthorized
	// OutcomeDenied means the user declined at the provider.
	OutcomeDenied
	// OutcomeUnauthorized means the identity is valid but not on the allow-list.
	OutcomeUnauthorized
	// OutcomeInternal covers any network, parsing or unexpected failure.
	OutcomeInternal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAuthorize:
		return "authorize"
	case OutcomeAuthorized:
		return "authorized"
	case OutcomeDenied:
		return "denied"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeInternal:
		return "internal"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Decision is what Resolve returns. UserID is set once an identity was fetched;
// Err is set for OutcomeInternal and is for logs only.
type Decision struct {
	Outcome Outcome
	UserID  string
	Err     error
}

// Resolve runs the callback state machine for a request carrying the given code
// and provider error query values. It performs no HTTP writes.
func (h *OAuthHandler) Resolve(ctx context.Context, code, providerErr string) Decision {
	logger := h.logEnricher(ctx, h.logger).Named("resolve")

	switch {
	case providerErr == accessDenied:
		logger.Info("User denied access at provider")
		return Decision{Outcome: OutcomeDenied}
	case providerErr != "":
		err := fmt.Errorf("%w: %s", ErrProviderError, providerErr)
		logger.Error("Provider returned an error on callback", zap.Error(err))
		return Decision{Outcome: OutcomeInternal, Err: err}
	case code == "":
		return Decision{Outcome: OutcomeAuthorize}
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	user, err := h.provider.Login(ctx, code)
	if err == nil && user == nil {
		err = ErrFailedToGetUserInfo
	}
	if err != nil {
		logger.Error("Authorization failed", zap.Error(err))
		return Decision{Outcome: OutcomeInternal, Err: err}
	}

	if !h.allowList.Contains(user.ID) {
		logger.Warn("User is not on the allow-list", zap.String("user_id", user.ID))
		return Decision{Outcome: OutcomeUnauthorized, UserID: user.ID}
	}

	logger.Info("User authorized", zap.String("user_id", user.ID))
	return Decision{Outcome: OutcomeAuthorized, UserID: user.ID}
}
