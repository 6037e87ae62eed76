// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/scadenza/internal/auth"
	"github.com/tomtom215/scadenza/internal/logging"
	ws "github.com/tomtom215/scadenza/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	HandshakeTimeout: 10 * time.Second,
	// Origin enforcement happens in the CORS middleware; non-browser
	// clients (the terminal client) send no Origin header at all.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket handles GET /api/ws: upgrades the connection and attaches it
// to the broadcast hub. Authentication already ran, via header or the
// token query parameter.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade error")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.Username)
	h.hub.Register <- client
	client.Start()
}
