// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/scadenza/internal/audit"
	"github.com/tomtom215/scadenza/internal/models"
)

func TestListener_EndpointURL(t *testing.T) {
	tests := []struct {
		name      string
		serverURL string
		want      string
		wantErr   bool
	}{
		{"http", "http://host:3000", "ws://host:3000/api/ws?token=tok", false},
		{"https", "https://host", "wss://host/api/ws?token=tok", false},
		{"trailing slash", "http://host:3000/", "ws://host:3000/api/ws?token=tok", false},
		{"bad scheme", "ftp://host", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewListener(tt.serverURL, nil, nil)
			got, err := l.endpointURL("tok")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("endpointURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestListener_DialFailure(t *testing.T) {
	l := NewListener("http://127.0.0.1:1", nil, nil)
	err := l.Run(context.Background(), "tok")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

// wsTestServer upgrades one connection and pushes the given frames.
func wsTestServer(t *testing.T, frames []interface{}) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ws" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("token") == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		for _, frame := range frames {
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListener_AppliesEventsAndNotifies(t *testing.T) {
	incoming := models.Deadline{
		ID: 5, Title: "pushed", Date: "2026-09-25", Time: "11:00",
		Priority: models.PriorityMedium, CreatedBy: "mario",
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(incoming)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	frames := []interface{}{
		models.Event{Kind: models.EventDeadlineCreated, Data: raw},
		// A malformed frame must not kill the subscription.
		models.Event{Kind: models.EventDeadlineUpdated, Data: []byte(`"garbage"`)},
		models.Event{Kind: models.EventNotification, Data: mustMarshal(t, models.Notification{
			ID: "n-1", Title: "promemoria", Message: "in scadenza", Type: "deadline",
			Timestamp: time.Now().UTC(),
		})},
	}
	srv := wsTestServer(t, frames)

	local := newLocalStore(t)
	state, err := LoadAppState(local)
	if err != nil {
		t.Fatalf("LoadAppState: %v", err)
	}
	controller := NewController(state, local, nil, audit.NewRecorder(local), func(string) {})

	notified := make(chan models.Notification, 1)
	l := NewListener(srv.URL, controller, func(n models.Notification) { notified <- n })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, "tok") }()

	select {
	case n := <-notified:
		if n.ID != "n-1" || n.Title != "promemoria" {
			t.Errorf("unexpected notification: %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never arrived")
	}

	// The deadline event that preceded it was applied.
	if got := controller.Deadlines(); len(got) != 1 || got[0].ID != 5 {
		t.Fatalf("expected the pushed deadline in the projection, got %+v", got)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}
