// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/scadenza/internal/models"
)

// memLog is an in-memory LogStore double.
type memLog struct {
	entries   []models.ActivityLogEntry
	appendErr error
}

func (m *memLog) AppendLog(_ context.Context, e *models.ActivityLogEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	if err := e.Validate(); err != nil {
		return err
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memLog) ListLogs(_ context.Context, limit int) ([]models.ActivityLogEntry, error) {
	out := make([]models.ActivityLogEntry, len(m.entries))
	copy(out, m.entries)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memLog) ClearLogs(_ context.Context) error {
	m.entries = nil
	return nil
}

func TestRecorder_Record(t *testing.T) {
	logs := &memLog{}
	r := NewRecorder(logs)
	fixed := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local)
	r.now = func() time.Time { return fixed }

	err := r.Record(context.Background(), ActionDeadlineCreated, "anna", `Creata scadenza "fattura" da anna`)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if len(logs.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(logs.entries))
	}
	e := logs.entries[0]
	if e.ID == "" {
		t.Error("expected a generated id")
	}
	if e.Action != ActionDeadlineCreated || e.User != "anna" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if !e.Timestamp.Equal(fixed.UTC()) {
		t.Errorf("timestamp must be recorded in UTC, got %v", e.Timestamp)
	}
}

func TestRecorder_RecordPropagatesStoreErrors(t *testing.T) {
	wantErr := errors.New("disk full")
	r := NewRecorder(&memLog{appendErr: wantErr})

	err := r.Record(context.Background(), ActionLogin, "anna", "Login effettuato da anna")
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestRecorder_RecordBestEffortSwallowsErrors(t *testing.T) {
	r := NewRecorder(&memLog{appendErr: errors.New("disk full")})

	// Must not panic or propagate.
	r.RecordBestEffort(context.Background(), ActionLogin, "anna", "Login effettuato da anna")
}
