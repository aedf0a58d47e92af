// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: main.go hands over a Config, and New wires
// the whole dependency chain in one place —
//
//	sqlite.DB → AuthService/CatalogService → handlers → routes
//
// Handlers never touch the database, services never touch HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/game-store/internal/auth"
	"github.com/sakif/game-store/internal/handler"
	"github.com/sakif/game-store/internal/middleware"
	sqliteRepo "github.com/sakif/game-store/internal/repository/sqlite"
	"github.com/sakif/game-store/internal/service"
	"github.com/sakif/game-store/internal/upload"
)

// Config holds server configuration, assembled once in main from the
// environment and passed in — nothing in here is read from globals.
type Config struct {
	Port       int
	DBPath     string // path to the SQLite database file
	UploadDir  string // directory product images are written to
	JWTSecret  string // HMAC key for session tokens (required)
	CORSOrigin string // allowed browser origin for the storefront

	// GitHub sign-in is optional: routes are only registered when a
	// client ID is configured.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the resources that need closing on shutdown
// (currently just the database connection).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database, builds the auth and catalog
// services, and wires every route.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /health                → liveness probe
//	GET  /uploads/*             → uploaded product images (static files)
//	POST /api/register          → create account, returns token
//	POST /api/login             → verify credentials, returns token
//	GET  /api/me                → profile of the token's owner   [bearer]
//	GET  /api/products          → full catalog
//	GET  /api/products/{id}     → product detail with platforms
//	POST /api/products          → create product (multipart)     [bearer]
//	GET  /auth/github/login     → start GitHub sign-in           [optional]
//	GET  /auth/github/callback  → finish GitHub sign-in          [optional]
func (s *Server) setupRoutes() error {
	// Global middleware — order matters: request ID and real IP first so
	// the logger and recoverer see them.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The storefront runs on its own origin, so the browser preflights
	// every API call. Authorization must be in AllowedHeaders or bearer
	// tokens are stripped by CORS.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{s.config.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	s.router.Use(c.Handler)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	// === Auth primitives ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// === Image intake + static serving ===
	// NewStore creates the directory; the file server then serves whatever
	// lands in it under /uploads/<name>.
	images, err := upload.NewStore(s.config.UploadDir, "/uploads")
	if err != nil {
		return fmt.Errorf("creating upload store: %w", err)
	}
	fileServer := http.FileServer(http.Dir(images.Dir()))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	// === Services ===
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	catalogService := service.NewCatalogService(s.db, images, s.logger)

	// === Optional GitHub sign-in ===
	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	productHandler := handler.NewProductHandler(catalogService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/products", productHandler.HandleList)
		r.Get("/products/{id}", productHandler.HandleGetByID)

		// Routes below require a valid bearer token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Post("/products", productHandler.HandleCreate)
		})
	})

	if github != nil {
		s.router.Route("/auth/github", func(r chi.Router) {
			r.Get("/login", authHandler.HandleGitHubLogin)
			r.Get("/callback", authHandler.HandleGitHubCallback)
		})
	} else {
		s.logger.Warn("GitHub sign-in disabled — GITHUB_CLIENT_ID not set")
	}

	return nil
}

// Router returns the assembled handler. Exposed for httptest-based tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests for up
// to 30 seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("uploads", s.config.UploadDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
