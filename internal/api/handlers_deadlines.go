// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/scadenza/internal/audit"
	"github.com/tomtom215/scadenza/internal/auth"
	"github.com/tomtom215/scadenza/internal/models"
	"github.com/tomtom215/scadenza/internal/store"
)

// ListDeadlines handles GET /api/deadlines, ordered by date then time
// ascending.
func (h *Handler) ListDeadlines(w http.ResponseWriter, r *http.Request) {
	deadlines, err := h.store.ListDeadlines(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, deadlines)
}

// CreateDeadline handles POST /api/deadlines. The server assigns id,
// createdBy and createdAt regardless of what the caller sent.
func (h *Handler) CreateDeadline(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req models.DeadlineRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.store.CreateDeadline(r.Context(), &models.Deadline{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Category:    req.Category,
		Priority:    req.Priority,
		Prealert:    req.Prealert,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   claims.Username,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.recorder.RecordBestEffort(r.Context(), audit.ActionDeadlineCreated, claims.Username,
		fmt.Sprintf("Creata scadenza %q da %s", created.Title, claims.Username))
	h.hub.Broadcast(models.EventDeadlineCreated, created)

	respondJSON(w, http.StatusCreated, created)
}

// UpdateDeadline handles PUT /api/deadlines/{id}. Completed, createdBy and
// createdAt are never editable.
func (h *Handler) UpdateDeadline(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.DeadlineRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.store.UpdateDeadline(r.Context(), id, store.DeadlineUpdate{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Category:    req.Category,
		Priority:    req.Priority,
		Prealert:    req.Prealert,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.recorder.RecordBestEffort(r.Context(), audit.ActionDeadlineUpdated, claims.Username,
		fmt.Sprintf("Modificata scadenza %q da %s", updated.Title, claims.Username))
	h.hub.Broadcast(models.EventDeadlineUpdated, updated)

	respondJSON(w, http.StatusOK, updated)
}

// DeleteDeadline handles DELETE /api/deadlines/{id}.
func (h *Handler) DeleteDeadline(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	deadlines, err := h.store.ListDeadlines(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	title := ""
	for _, d := range deadlines {
		if d.ID == id {
			title = d.Title
			break
		}
	}

	if err := h.store.DeleteDeadline(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}

	h.recorder.RecordBestEffort(r.Context(), audit.ActionDeadlineDeleted, claims.Username,
		fmt.Sprintf("Eliminata scadenza %q da %s", title, claims.Username))
	h.hub.Broadcast(models.EventDeadlineDeleted, models.DeletedRef{ID: id})

	respondJSON(w, http.StatusOK, models.MessageResponse{Message: "deadline deleted"})
}

// ToggleDeadlineCompleted handles PATCH /api/deadlines/{id}/complete. The
// flag is toggled, so applying the operation twice restores the original
// state.
func (h *Handler) ToggleDeadlineCompleted(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	toggled, err := h.store.ToggleDeadlineCompleted(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if toggled.Completed {
		h.recorder.RecordBestEffort(r.Context(), audit.ActionDeadlineComplete, claims.Username,
			fmt.Sprintf("Completata scadenza %q da %s", toggled.Title, claims.Username))
	}
	h.hub.Broadcast(models.EventDeadlineCompleted, toggled)

	respondJSON(w, http.StatusOK, toggled)
}
