// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

// Package api provides HTTP routing and request handlers.
package api

import (
	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/scadenza/internal/audit"
	"github.com/tomtom215/scadenza/internal/auth"
	"github.com/tomtom215/scadenza/internal/store"
	"github.com/tomtom215/scadenza/internal/websocket"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	store    store.Store
	sessions *auth.SessionManager
	recorder *audit.Recorder
	hub      *websocket.Hub
	validate *validator.Validate

	// adminUsername is the seeded administrator account, which can never
	// be deleted.
	adminUsername string
}

// NewHandler creates a Handler with all dependencies wired.
func NewHandler(s store.Store, sessions *auth.SessionManager, recorder *audit.Recorder, hub *websocket.Hub, adminUsername string) *Handler {
	return &Handler{
		store:         s,
		sessions:      sessions,
		recorder:      recorder,
		hub:           hub,
		validate:      validator.New(),
		adminUsername: adminUsername,
	}
}
