// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/scadenza/internal/logging"
	"github.com/tomtom215/scadenza/internal/models"
)

// NotifyFunc receives notifications relayed by other clients.
type NotifyFunc func(n models.Notification)

// Listener maintains the websocket subscription to the server's broadcast
// channel and feeds events into the controller. Delivery is at-most-once:
// whatever was broadcast while disconnected is reconciled by the next
// Controller.Load.
type Listener struct {
	serverURL  string
	controller *Controller
	notify     NotifyFunc
	dialer     *websocket.Dialer
}

// NewListener creates a Listener for the given http(s) server URL.
// notify may be nil.
func NewListener(serverURL string, controller *Controller, notify NotifyFunc) *Listener {
	return &Listener{
		serverURL:  strings.TrimRight(serverURL, "/"),
		controller: controller,
		notify:     notify,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Run dials the broadcast endpoint and processes events until the context
// is canceled or the connection drops. The caller decides whether to
// redial; Run never retries on its own.
func (l *Listener) Run(ctx context.Context, token string) error {
	wsURL, err := l.endpointURL(token)
	if err != nil {
		return err
	}

	conn, resp, err := l.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%w: handshake rejected with %d", ErrNetwork, resp.StatusCode)
		}
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock ReadJSON when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var event models.Event
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		l.dispatch(ctx, event)
	}
}

// dispatch routes one event. Malformed payloads are logged and skipped so
// a single bad message cannot kill the subscription.
func (l *Listener) dispatch(ctx context.Context, event models.Event) {
	switch event.Kind {
	case models.EventNotification:
		if l.notify == nil {
			return
		}
		var n models.Notification
		if err := json.Unmarshal(event.Data, &n); err != nil {
			logging.Warn().Err(err).Msg("malformed notification event")
			return
		}
		l.notify(n)

	default:
		if err := l.controller.ApplyEvent(ctx, event); err != nil {
			logging.Warn().Err(err).Str("event_kind", event.Kind).Msg("failed to apply broadcast event")
		}
	}
}

// endpointURL converts the http(s) base URL into the ws(s) broadcast
// endpoint, carrying the token as a query parameter for the handshake.
func (l *Listener) endpointURL(token string) (string, error) {
	u, err := url.Parse(l.serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server url scheme %q", u.Scheme)
	}
	u.Path = "/api/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
