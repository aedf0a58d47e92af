// Package main is the entry point for the game-store API server.
//
// main stays minimal: read configuration from the environment, build the
// logger, hand everything to internal/server. All actual logic lives in the
// imported packages.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sakif/game-store/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// .env is a development convenience; in production the variables come
	// from the real environment and the file simply doesn't exist.
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded configuration from .env")
	}

	port := 5000
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// The signing secret has no default on purpose: an embedded fallback
	// key would mean every deployment that forgot the variable shares the
	// same secret. Refuse to start instead.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required (e.g. JWT_SECRET=$(openssl rand -hex 32))")
		os.Exit(1)
	}

	// SQLite won't create parent directories itself.
	dbPath := getenv("DB_PATH", "data/store.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		UploadDir:          getenv("UPLOAD_DIR", "uploads"),
		JWTSecret:          jwtSecret,
		CORSOrigin:         getenv("CORS_ORIGIN", "http://localhost:3000"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
	}
	if cfg.GitHubClientID != "" && cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", port)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// getenv returns the value of key or fallback when unset.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
