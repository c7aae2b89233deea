// Package server exposes the authorization handler over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Suhaibinator/panelgate/internal/config"
	"github.com/Suhaibinator/panelgate/pkg/auth"
)

// HealthPath answers liveness probes.
const HealthPath = "/healthz"

// Module wires the handler, mux and HTTP server into an fx application.
var Module = fx.Module("server",
	fx.Provide(
		NewOAuthHandler,
		NewMux,
		NewHTTPServer,
	),
	fx.Invoke(func(*http.Server) {}),
)

// NewOAuthHandler builds the authorization handler from the loaded configuration.
func NewOAuthHandler(cfg *config.Config, logger *zap.Logger) (*auth.OAuthHandler, error) {
	for _, w := range cfg.Warnings() {
		logger.Warn("Configuration warning", zap.String("warning", w))
	}

	h := auth.NewOAuthHandler(logger, LogEnricher, &auth.Config{
		ClientID:          cfg.Discord.ClientID,
		ClientSecret:      cfg.Discord.ClientSecret,
		CallbackURL:       cfg.CallbackURL(),
		PanelURL:          cfg.PanelURL(),
		LoginURL:          cfg.Paths.Login,
		ProviderBaseURL:   cfg.Discord.BaseURL,
		AuthorizedUserIDs: cfg.AuthorizedUserIDs,
		Timeout:           cfg.Discord.Timeout,
	})
	if h == nil {
		return nil, errors.New("failed to create OAuth handler")
	}
	return h, nil
}

// NewMux routes the callback path to the handler and wraps everything in the
// logging middleware.
func NewMux(cfg *config.Config, handler *auth.OAuthHandler, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(cfg.Paths.Callback, handler)
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return loggingMiddleware(logger, mux)
}

// NewHTTPServer creates the server and ties it to the fx lifecycle.
func NewHTTPServer(lc fx.Lifecycle, cfg *config.Config, handler http.Handler, oauth *auth.OAuthHandler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
			srv.Addr = ln.Addr().String()
			logger.Info("Starting HTTP server",
				zap.String("addr", srv.Addr),
				zap.String("callback_path", cfg.Paths.Callback),
			)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			defer oauth.Stop()
			logger.Info("Shutting down HTTP server")
			return srv.Shutdown(ctx)
		},
	})
	return srv
}
