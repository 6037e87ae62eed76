// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package models

import (
	"fmt"
	"time"
)

// ActivityLogEntry is one immutable record in the audit trail. Entries are
// append-only: never mutated or individually deleted. The whole log may be
// bulk-cleared as a local-mode maintenance action.
type ActivityLogEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
}

// Validate checks the entry for storage.
func (e *ActivityLogEntry) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidEntity)
	}
	if e.User == "" {
		return fmt.Errorf("%w: user is required", ErrInvalidEntity)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEntity)
	}
	return nil
}
