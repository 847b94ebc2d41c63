package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	oauth1Service     driving.OAuth1FlowService
	oauth2Service     driving.OAuth2FlowService
	moderationService driving.ModerationService

	// Infrastructure
	authAdapter driven.AuthAdapter
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	oauth1Service driving.OAuth1FlowService,
	oauth2Service driving.OAuth2FlowService,
	moderationService driving.ModerationService,
	authAdapter driven.AuthAdapter,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	s := &Server{
		router:            http.NewServeMux(),
		version:           cfg.Version,
		oauth1Service:     oauth1Service,
		oauth2Service:     oauth2Service,
		moderationService: moderationService,
		authAdapter:       authAdapter,
		db:                db,
		redisClient:       redisClient,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authAdapter)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// OAuth 1.0a flow. The callback is authenticated too: the provider
	// redirects the user's browser, which carries the session's token.
	s.router.Handle("GET /api/v1/oauth1/begin",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleOAuth1Begin)))
	s.router.Handle("GET /api/v1/oauth1/callback",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleOAuth1Callback)))

	// OAuth 2.0 + PKCE flow
	s.router.Handle("GET /api/v1/oauth2/begin",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleOAuth2Begin)))
	s.router.Handle("GET /api/v1/oauth2/callback",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleOAuth2Callback)))

	// Moderation pipeline
	s.router.Handle("POST /api/v1/moderation/run",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleModerationRun)))
	s.router.Handle("GET /api/v1/moderation/runs",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListRuns)))
	s.router.Handle("GET /api/v1/moderation/runs/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetRun)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
