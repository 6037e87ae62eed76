// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/scadenza/internal/models"
	"github.com/tomtom215/scadenza/internal/store"
)

// sessionStateKey is the device-state slot holding the persisted session.
const sessionStateKey = "session"

// sessionState is the JSON shape persisted in the local store.
type sessionState struct {
	Token          string       `json:"token,omitempty"`
	User           *models.User `json:"user,omitempty"`
	ServerMode     bool         `json:"serverMode"`
	RememberDevice bool         `json:"rememberDevice"`
}

// AppState is the device state of one client installation: the active
// session, the server-mode flag and the remember-device flag. It persists
// through the local store so a restart resumes where the user left off.
//
// AppState is passed explicitly to the components that need it; there is
// no package-level instance.
type AppState struct {
	local *store.BadgerStore

	mu   sync.Mutex
	data sessionState
}

// LoadAppState reads the persisted device state, returning a zero state on
// first run.
func LoadAppState(local *store.BadgerStore) (*AppState, error) {
	s := &AppState{local: local}

	raw, err := local.GetState(sessionStateKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load device state: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("decode device state: %w", err)
	}
	return s, nil
}

// Token returns the persisted session credential, empty when logged out.
func (s *AppState) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Token
}

// User returns a copy of the logged-in user, nil when logged out.
func (s *AppState) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.User == nil {
		return nil
	}
	u := *s.data.User
	return &u
}

// Username returns the logged-in username, empty when logged out.
func (s *AppState) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.User == nil {
		return ""
	}
	return s.data.User.Username
}

// ServerMode reports whether operations should go to the remote server.
func (s *AppState) ServerMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ServerMode
}

// RememberDevice reports whether cached data survives logout.
func (s *AppState) RememberDevice() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.RememberDevice
}

// SetSession persists a fresh login.
func (s *AppState) SetSession(token string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Token = token
	s.data.User = user
	return s.save()
}

// SetServerMode persists the operating mode.
func (s *AppState) SetServerMode(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.ServerMode = enabled
	return s.save()
}

// SetRememberDevice persists the remember-device preference.
func (s *AppState) SetRememberDevice(remember bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.RememberDevice = remember
	return s.save()
}

// ClearOnLogout removes the session. Unless remember-device is set, the
// cached entity collections are wiped as well.
func (s *AppState) ClearOnLogout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Token = ""
	s.data.User = nil

	if !s.data.RememberDevice {
		if err := s.local.ClearCollections(); err != nil {
			return fmt.Errorf("clear cached collections: %w", err)
		}
	}
	return s.save()
}

// save persists the state under the session slot. Callers hold s.mu.
func (s *AppState) save() error {
	raw, err := json.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("encode device state: %w", err)
	}
	if err := s.local.PutState(sessionStateKey, raw); err != nil {
		return fmt.Errorf("persist device state: %w", err)
	}
	return nil
}
