// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

// Package audit appends activity log entries for every mutating operation.
// The action vocabulary and detail strings match the original dataset, so an
// existing log survives a backend swap unchanged.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/scadenza/internal/logging"
	"github.com/tomtom215/scadenza/internal/models"
	"github.com/tomtom215/scadenza/internal/store"
)

// Action labels recorded in the activity log.
const (
	ActionLogin            = "Login"
	ActionPasswordChange   = "Cambio password"
	ActionUserCreated      = "Creazione utente"
	ActionUserUpdated      = "Modifica utente"
	ActionUserDeleted      = "Eliminazione utente"
	ActionDeadlineCreated  = "Creazione scadenza"
	ActionDeadlineUpdated  = "Modifica scadenza"
	ActionDeadlineDeleted  = "Eliminazione scadenza"
	ActionDeadlineComplete = "Completamento scadenza"
	ActionCategoryCreated  = "Creazione categoria"
	ActionCategoryDeleted  = "Eliminazione categoria"
)

// Recorder appends immutable entries to a LogStore.
type Recorder struct {
	logs store.LogStore
	now  func() time.Time
}

// NewRecorder creates a Recorder writing to logs.
func NewRecorder(logs store.LogStore) *Recorder {
	return &Recorder{logs: logs, now: time.Now}
}

// Record appends one entry. The write is synchronous: callers that must log
// before responding (login, password change) simply call Record inline.
func (r *Recorder) Record(ctx context.Context, action, actor, details string) error {
	entry := &models.ActivityLogEntry{
		ID:        uuid.New().String(),
		Action:    action,
		User:      actor,
		Timestamp: r.now().UTC(),
		Details:   details,
	}
	if err := r.logs.AppendLog(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// RecordBestEffort appends one entry and only logs a warning on failure.
// Used on paths where a failed audit write must not fail the mutation that
// already succeeded.
func (r *Recorder) RecordBestEffort(ctx context.Context, action, actor, details string) {
	if err := r.Record(ctx, action, actor, details); err != nil {
		logging.Warn().Err(err).Str("action", action).Msg("audit entry dropped")
	}
}
