// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

// Package models defines the entity types shared by the store, the HTTP API
// and the client. Entities are validated at the store boundary; a record that
// fails Validate never reaches durable storage.
package models

import (
	"errors"
	"fmt"
)

// User is an account that can log in and manage deadlines.
// Password holds the credential in whatever form the backend expects: the
// bcrypt hash at rest in the embedded store, the plaintext in transit to a
// remote server that hashes at its own boundary. Handlers must respond
// with Public() copies.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	IsAdmin  bool   `json:"isAdmin"`
}

// ErrInvalidEntity wraps all entity validation failures.
var ErrInvalidEntity = errors.New("invalid entity")

// Validate checks the user for storage.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidEntity)
	}
	if u.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidEntity)
	}
	return nil
}

// Public returns a copy safe to serialize to clients: the credential is
// stripped.
func (u User) Public() User {
	u.Password = ""
	return u
}
