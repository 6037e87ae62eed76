// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/scadenza/internal/audit"
	"github.com/tomtom215/scadenza/internal/auth"
	"github.com/tomtom215/scadenza/internal/models"
	"github.com/tomtom215/scadenza/internal/store"
)

// ListUsers handles GET /api/users. Password hashes never leave the store
// boundary.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	public := make([]models.User, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	respondJSON(w, http.StatusOK, public)
}

// CreateUser handles POST /api/users (admin only).
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req models.CreateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	created, err := h.store.CreateUser(r.Context(), &models.User{
		Username: req.Username,
		Password: hash,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.recorder.RecordBestEffort(r.Context(), audit.ActionUserCreated, claims.Username,
		fmt.Sprintf("Creato utente %s da %s", created.Username, claims.Username))
	h.hub.Broadcast(models.EventUserCreated, created.Public())

	respondJSON(w, http.StatusCreated, created.Public())
}

// UpdateUser handles PUT /api/users/{id} (admin only). An empty password
// keeps the stored hash.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	upd := store.UserUpdate{Username: req.Username, IsAdmin: req.IsAdmin}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
			return
		}
		upd.Password = hash
	}

	updated, err := h.store.UpdateUser(r.Context(), id, upd)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.recorder.RecordBestEffort(r.Context(), audit.ActionUserUpdated, claims.Username,
		fmt.Sprintf("Modificato utente %s da %s", updated.Username, claims.Username))
	h.hub.Broadcast(models.EventUserUpdated, updated.Public())

	respondJSON(w, http.StatusOK, updated.Public())
}

// DeleteUser handles DELETE /api/users/{id} (admin only). The seeded admin
// account is never deletable.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if user.Username == h.adminUsername {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "the administrator account cannot be deleted")
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}

	h.recorder.RecordBestEffort(r.Context(), audit.ActionUserDeleted, claims.Username,
		fmt.Sprintf("Eliminato utente %s da %s", user.Username, claims.Username))
	h.hub.Broadcast(models.EventUserDeleted, models.DeletedRef{ID: id})

	respondJSON(w, http.StatusOK, models.MessageResponse{Message: "user deleted"})
}

// pathID parses the {id} URL parameter, writing a validation error on
// failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be an integer")
		return 0, false
	}
	return id, true
}
