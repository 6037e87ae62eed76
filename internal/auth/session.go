// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/scadenza/internal/audit"
	"github.com/tomtom215/scadenza/internal/models"
	"github.com/tomtom215/scadenza/internal/store"
)

// SessionManager validates credentials against the user store, issues
// stateless session tokens and resolves them back to identities.
type SessionManager struct {
	users    store.UserStore
	tokens   *JWTManager
	recorder *audit.Recorder
}

// NewSessionManager wires the user store, the token manager and the audit
// recorder together.
func NewSessionManager(users store.UserStore, tokens *JWTManager, recorder *audit.Recorder) *SessionManager {
	return &SessionManager{users: users, tokens: tokens, recorder: recorder}
}

// Login checks the credentials and returns a signed token plus the user
// identity. The audit entry is appended synchronously before returning.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (m *SessionManager) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := m.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("look up user: %w", err)
	}
	if !CheckPassword(user.Password, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := m.tokens.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return "", nil, err
	}

	if err := m.recorder.Record(ctx, audit.ActionLogin, user.Username,
		fmt.Sprintf("Login effettuato da %s", user.Username)); err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Validate resolves a session credential back to an identity.
func (m *SessionManager) Validate(token string) (*Claims, error) {
	return m.tokens.ValidateToken(token)
}

// ChangePassword re-hashes the password after verifying the current one.
// The audit entry is appended synchronously before returning.
func (m *SessionManager) ChangePassword(ctx context.Context, identity *Claims, currentPassword, newPassword string) error {
	user, err := m.users.GetUser(ctx, identity.UserID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if !CheckPassword(user.Password, currentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	upd := store.UserUpdate{
		Username: user.Username,
		Password: hash,
		IsAdmin:  user.IsAdmin,
	}
	if _, err := m.users.UpdateUser(ctx, user.ID, upd); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return m.recorder.Record(ctx, audit.ActionPasswordChange, user.Username,
		fmt.Sprintf("Password cambiata per l'utente %s", user.Username))
}
