// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

// The server binary: HTTP API, websocket broadcast fan-out and the
// embedded durable store, run under a suture supervision tree.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/scadenza/internal/api"
	"github.com/tomtom215/scadenza/internal/audit"
	"github.com/tomtom215/scadenza/internal/auth"
	"github.com/tomtom215/scadenza/internal/config"
	"github.com/tomtom215/scadenza/internal/logging"
	"github.com/tomtom215/scadenza/internal/store"
	"github.com/tomtom215/scadenza/internal/supervisor"
	"github.com/tomtom215/scadenza/internal/supervisor/services"
	ws "github.com/tomtom215/scadenza/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("storage_path", cfg.Storage.Path).
		Bool("in_memory", cfg.Storage.InMemory).
		Msg("Configuration loaded")

	// Open the durable store.
	var db *store.BadgerStore
	if cfg.Storage.InMemory {
		db, err = store.OpenInMemory()
	} else {
		db, err = store.Open(cfg.Storage.Path)
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	// Seed the admin account and the default categories on first run.
	adminHash, err := auth.HashPassword(cfg.Security.AdminPassword)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to hash admin password")
	}
	if err := store.EnsureSeedData(context.Background(), db, cfg.Security.AdminUsername, adminHash); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed store")
	}

	secret := cfg.Security.JWTSecret
	if secret == "" {
		secret = randomSecret()
		logging.Warn().Msg("No JWT secret configured, generated an ephemeral one; sessions will not survive a restart")
	}

	// Wire the components.
	hub := ws.NewHub()
	recorder := audit.NewRecorder(db)
	tokens, err := auth.NewJWTManager(secret, cfg.Security.SessionTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token manager")
	}
	sessions := auth.NewSessionManager(db, tokens, recorder)
	authMW := auth.NewMiddleware(tokens)
	limiter := auth.NewRateLimiter(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow)
	limiter.StartCleanup(cfg.Security.RateLimitWindow)

	handler := api.NewHandler(db, sessions, recorder, hub, cfg.Security.AdminUsername)
	router := api.NewRouter(handler, authMW, limiter, cfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	// Supervision tree: the hub in the messaging layer, the HTTP server in
	// the API layer, both logging through the zerolog-backed slog bridge.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}

// randomSecret generates 32 bytes of entropy, hex encoded.
func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		logging.Fatal().Err(err).Msg("Failed to generate JWT secret")
	}
	return hex.EncodeToString(buf)
}
