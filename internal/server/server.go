package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/config"
	"github.com/agrilinkchain/agrilink/internal/http/handlers"
	"github.com/agrilinkchain/agrilink/internal/middleware"
	"github.com/agrilinkchain/agrilink/internal/remote"
	"github.com/agrilinkchain/agrilink/internal/session"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// Router builds the route tree: public auth and marketplace endpoints plus one group per role portal.
func Router(cfg config.Config, client remote.Client, resolver *session.Resolver, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Logging(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Session(resolver, log))

	handlers.NewHealthHandler(time.Now(), cfg.Backend).Register(r)
	handlers.NewAuthHandler(client, resolver, log, cfg.CookieSecure).Register(r)
	handlers.NewMarketplaceHandler(client, log).Register(r)
	handlers.NewFarmerHandler(client, log).Register(r)
	handlers.NewBuyerHandler(client, log).Register(r)
	handlers.NewAdminHandler(client, log).Register(r)
	handlers.NewAgentHandler(client, log).Register(r)
	return r
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, client remote.Client, resolver *session.Resolver, log *zap.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Router(cfg, client, resolver, log),
		ErrorLog:          zap.NewStdLog(log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
