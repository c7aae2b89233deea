package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// ServeHTTP answers every request with a 302. The body is always empty and the
// response is never cached.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	d := h.resolveSafely(r, query.Get("code"), query.Get("error"))

	location := h.Location(r.Context(), d)
	w.Header().Set("Location", location)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusFound)
}

// resolveSafely turns a panic anywhere in Resolve into an internal decision.
func (h *OAuthHandler) resolveSafely(r *http.Request, code, providerErr string) (d Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic during authorization: %v", rec)
			h.logEnricher(r.Context(), h.logger).Error("Recovered from panic", zap.Error(err), zap.Stack("stack"))
			d = Decision{Outcome: OutcomeInternal, Err: err}
		}
	}()
	return h.Resolve(r.Context(), code, providerErr)
}

// Location maps a decision to its redirect target.
func (h *OAuthHandler) Location(ctx context.Context, d Decision) string {
	switch d.Outcome {
	case OutcomeAuthorize:
		return h.AuthURL(ctx)
	case OutcomeAuthorized:
		return h.config.PanelURL
	case OutcomeDenied, OutcomeUnauthorized:
		return h.loginURL(d.Outcome.String())
	default:
		return h.loginURL(OutcomeInternal.String())
	}
}

// loginURL appends error=<indicator> to the configured login page, keeping any
// query the page already carries.
func (h *OAuthHandler) loginURL(indicator string) string {
	u, err := url.Parse(h.config.LoginURL)
	if err != nil {
		return "/login.html?error=" + url.QueryEscape(indicator)
	}
	q := u.Query()
	q.Set("error", indicator)
	u.RawQuery = q.Encode()
	return u.String()
}
