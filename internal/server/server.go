package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signgate/signgate/internal/auth"
	"github.com/signgate/signgate/internal/eformsign"
	"github.com/signgate/signgate/internal/handler"
	"github.com/signgate/signgate/internal/openapi"
	"github.com/signgate/signgate/internal/server/middleware"
	"github.com/signgate/signgate/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	LoginRatePerMin int
	EnableMetrics   bool
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		LoginRatePerMin: 30,
		EnableMetrics:   true,
	}
}

// Server is the top-level HTTP server. It owns the Chi router, the member
// store, the authentication service, and the provider client.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	authSvc    *auth.Service
	client     *eformsign.Client
	requests   middleware.RequestRecorder
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
// rec may be nil when request metrics are disabled.
func New(cfg Config, st *store.Store, authSvc *auth.Service, client *eformsign.Client, rec middleware.RequestRecorder, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		authSvc:  authSvc,
		client:   client,
		requests: rec,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	if s.requests != nil {
		r.Use(middleware.Metrics(s.requests))
	}

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	// --- OpenAPI spec (no auth required) ---
	r.Get("/openapi.json", openapi.Handler())

	// --- Metrics ---
	if s.cfg.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	// --- API routes ---
	r.Route("/api/v1", func(r chi.Router) {
		authHandler := handler.NewAuthHandler(s.authSvc)
		memberHandler := handler.NewMemberHandler(s.authSvc)
		efHandler := handler.NewEformsignHandler(s.client)

		// Login is unauthenticated and rate-limited per client IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.cfg.LoginRatePerMin))
			r.Post("/auth/login", authHandler.Login)
		})

		// Everything below requires a session token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.authSvc))

			// Local member registry
			r.Get("/members/me", memberHandler.Me)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager())
				r.Get("/members", memberHandler.List)
				r.Post("/members", memberHandler.Create)
			})

			// Proxy surface onto the e-signature provider
			r.Route("/eformsign", func(r chi.Router) {
				// Embedded-signing credential
				r.Get("/token", efHandler.EmbedToken)

				// Templates
				r.Get("/templates", efHandler.ListTemplates)
				r.Post("/templates/{templateID}/duplicate", efHandler.DuplicateTemplate)
				r.Delete("/templates/{templateID}", efHandler.DeleteTemplate)

				// Documents
				r.Get("/documents", efHandler.ListDocuments)
				r.Post("/documents", efHandler.CreateDocument)
				r.Get("/documents/{documentID}", efHandler.GetDocument)

				// Provider-side company administration
				r.Route("/company", func(r chi.Router) {
					r.Get("/members", efHandler.ListCompanyMembers)
					r.Post("/members", efHandler.CreateCompanyMember)
					r.Patch("/members/{memberID}", efHandler.UpdateCompanyMember)
					r.Delete("/members/{memberID}", efHandler.DeleteCompanyMember)

					r.Get("/groups", efHandler.ListGroups)
					r.Post("/groups", efHandler.CreateGroup)
					r.Patch("/groups/{groupID}", efHandler.UpdateGroup)
					r.Delete("/groups/{groupID}", efHandler.DeleteGroup)
				})
			})
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the member store is
// reachable, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if err := s.store.Ping(r.Context()); err != nil {
		checks["store"] = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing the store.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Warn("store close", "error", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
