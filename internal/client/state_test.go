// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package client

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/scadenza/internal/models"
	"github.com/tomtom215/scadenza/internal/store"
)

func newLocalStore(t *testing.T) *store.BadgerStore {
	t.Helper()
	s, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppState_FirstRunIsZero(t *testing.T) {
	local := newLocalStore(t)

	state, err := LoadAppState(local)
	if err != nil {
		t.Fatalf("LoadAppState: %v", err)
	}
	if state.Token() != "" || state.User() != nil || state.ServerMode() || state.RememberDevice() {
		t.Error("expected a zero state on first run")
	}
}

func TestAppState_PersistsAcrossLoads(t *testing.T) {
	local := newLocalStore(t)

	state, err := LoadAppState(local)
	if err != nil {
		t.Fatalf("LoadAppState: %v", err)
	}
	if err := state.SetSession("tok-1", &models.User{ID: 3, Username: "anna", IsAdmin: true}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if err := state.SetServerMode(true); err != nil {
		t.Fatalf("SetServerMode: %v", err)
	}
	if err := state.SetRememberDevice(true); err != nil {
		t.Fatalf("SetRememberDevice: %v", err)
	}

	// A fresh load over the same store sees everything.
	reloaded, err := LoadAppState(local)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Token() != "tok-1" {
		t.Errorf("expected token tok-1, got %q", reloaded.Token())
	}
	if reloaded.Username() != "anna" {
		t.Errorf("expected username anna, got %q", reloaded.Username())
	}
	if !reloaded.ServerMode() || !reloaded.RememberDevice() {
		t.Error("expected flags to persist")
	}

	u := reloaded.User()
	if u == nil || u.ID != 3 || !u.IsAdmin {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestAppState_ClearOnLogout(t *testing.T) {
	ctx := context.Background()

	seedCache := func(t *testing.T, local *store.BadgerStore) {
		t.Helper()
		_, err := local.CreateDeadline(ctx, &models.Deadline{
			Title: "cached", Date: "2026-09-15", Time: "09:00",
			Priority: models.PriorityLow, CreatedBy: "anna", CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("CreateDeadline: %v", err)
		}
	}

	t.Run("wipes cache by default", func(t *testing.T) {
		local := newLocalStore(t)
		state, err := LoadAppState(local)
		if err != nil {
			t.Fatalf("LoadAppState: %v", err)
		}
		seedCache(t, local)
		if err := state.SetSession("tok", &models.User{ID: 1, Username: "anna"}); err != nil {
			t.Fatalf("SetSession: %v", err)
		}

		if err := state.ClearOnLogout(); err != nil {
			t.Fatalf("ClearOnLogout: %v", err)
		}

		if state.Token() != "" || state.User() != nil {
			t.Error("expected session cleared")
		}
		deadlines, _ := local.ListDeadlines(ctx)
		if len(deadlines) != 0 {
			t.Errorf("expected cache wiped, got %d deadlines", len(deadlines))
		}
	})

	t.Run("remember device keeps cache", func(t *testing.T) {
		local := newLocalStore(t)
		state, err := LoadAppState(local)
		if err != nil {
			t.Fatalf("LoadAppState: %v", err)
		}
		seedCache(t, local)
		if err := state.SetSession("tok", &models.User{ID: 1, Username: "anna"}); err != nil {
			t.Fatalf("SetSession: %v", err)
		}
		if err := state.SetRememberDevice(true); err != nil {
			t.Fatalf("SetRememberDevice: %v", err)
		}

		if err := state.ClearOnLogout(); err != nil {
			t.Fatalf("ClearOnLogout: %v", err)
		}

		if state.Token() != "" {
			t.Error("expected session cleared")
		}
		deadlines, _ := local.ListDeadlines(ctx)
		if len(deadlines) != 1 {
			t.Errorf("expected cache kept, got %d deadlines", len(deadlines))
		}
	})
}

func TestAppState_UserReturnsCopy(t *testing.T) {
	local := newLocalStore(t)
	state, err := LoadAppState(local)
	if err != nil {
		t.Fatalf("LoadAppState: %v", err)
	}
	if err := state.SetSession("tok", &models.User{ID: 1, Username: "anna"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	u := state.User()
	u.Username = "mutated"
	if state.Username() != "anna" {
		t.Error("mutating the returned copy must not affect the state")
	}
}
