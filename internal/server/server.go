package server

import (
	"context"
	"net/http"
	"time"

	"github.com/finanbot/finanbot/internal/attachments"
	"github.com/finanbot/finanbot/internal/auth"
	"github.com/finanbot/finanbot/internal/config"
	"github.com/finanbot/finanbot/internal/http/handlers"
	"github.com/finanbot/finanbot/internal/middleware"
	"github.com/finanbot/finanbot/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server. The
// publisher may be nil when no AMQP broker is configured.
func New(cfg config.Config, store storage.Store, files *attachments.FileStore, publisher handlers.EventPublisher) (*Server, error) {
	tokens, err := auth.NewTokenManager(cfg.SecretKey, cfg.JWTAlgorithm, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}
	hasher := auth.NewHasher(cfg.BcryptCost)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), store, files).Register(mux)
	handlers.NewAuthHandler(store, tokens, hasher, cfg.JWTTTL).Register(mux)
	handlers.NewUsersHandler(store, tokens).Register(mux)
	handlers.NewTransactionsHandler(store, tokens, publisher).Register(mux)
	handlers.NewAttachmentsHandler(store, tokens, files).Register(mux)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}, nil
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
