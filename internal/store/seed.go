// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/scadenza/internal/models"
)

// DefaultCategories is the category set seeded at first run.
var DefaultCategories = []string{"Lavoro", "Personale", "Urgente", "Riunioni"}

// EnsureSeedData creates the admin account and the default categories if
// they do not exist yet. Safe to call on every startup.
// The adminPasswordHash must already be bcrypt-hashed by the caller.
func EnsureSeedData(ctx context.Context, s Store, adminUsername, adminPasswordHash string) error {
	_, err := s.GetUserByUsername(ctx, adminUsername)
	switch {
	case err == nil:
		// Admin already present.
	case errors.Is(err, ErrNotFound):
		admin := &models.User{
			Username: adminUsername,
			Password: adminPasswordHash,
			IsAdmin:  true,
		}
		if _, err := s.CreateUser(ctx, admin); err != nil && !errors.Is(err, ErrConflict) {
			return fmt.Errorf("seed admin user: %w", err)
		}
	default:
		return fmt.Errorf("check admin user: %w", err)
	}

	for _, name := range DefaultCategories {
		if err := s.CreateCategory(ctx, name); err != nil && !errors.Is(err, ErrConflict) {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}
	return nil
}
