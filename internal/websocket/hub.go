// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

// Package websocket implements the Broadcast Channel: one persistent duplex
// connection per connected client, with server-side fan-out of mutation
// events to every connection.
//
// Delivery is at-most-once and best-effort. Emission is synchronous with the
// mutating request's response but never blocks on, or confirms, client
// receipt: a full send buffer drops the client, a full broadcast channel
// drops the message. Disconnected clients reconcile on their next full list
// fetch.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/scadenza/internal/logging"
	"github.com/tomtom215/scadenza/internal/metrics"
)

// Message is one broadcast frame: an event kind tag plus the affected
// entity (or its id, for deletes).
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Control message types exchanged with clients in addition to the
// mutation-event kinds defined in models.
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Hub maintains the set of active clients and fans broadcast messages out
// to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub event loop until the context is canceled,
// then closes all clients and returns ctx.Err(). Designed for suture
// supervision: a restart never leaves orphaned connections.
//
// Selection is priority-ordered (shutdown, then lifecycle, then broadcast)
// so client state is consistent before any message is processed and
// behavior stays deterministic when several channels are ready at once.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// Run runs the hub without shutdown support. Tests only.
func (h *Hub) Run() {
	_ = h.RunWithContext(context.Background())
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	metrics.SetWSClients(total)
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.SetWSClients(total)
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	count := h.ClientCount()
	h.closeAllClients()
	logging.Info().
		Str("component", "websocket-hub").
		AnErr("reason", ctx.Err()).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

// broadcastToClients sends one message to every connected client in
// deterministic id order. Clients with a full send buffer are dropped:
// at-most-once delivery, never backpressure into the hub.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.SetWSClients(len(h.clients))
		logging.Warn().Int("dropped_clients", len(toRemove)).Msg("dropped slow websocket clients")
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.SetWSClients(0)
}

// Broadcast queues one event for fan-out to every connected client,
// including the originator. Fire-and-forget: a full queue drops the event
// with a warning.
func (h *Hub) Broadcast(kind string, data interface{}) {
	message := Message{Type: kind, Data: data}
	select {
	case h.broadcast <- message:
		metrics.RecordBroadcast(kind)
	default:
		metrics.RecordBroadcastDropped()
		logging.Warn().Str("event_kind", kind).Msg("broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
