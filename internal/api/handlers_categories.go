// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/scadenza/internal/audit"
	"github.com/tomtom215/scadenza/internal/auth"
	"github.com/tomtom215/scadenza/internal/models"
)

// ListCategories handles GET /api/categories. Names are sorted ascending.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// CreateCategory handles POST /api/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req models.CategoryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.store.CreateCategory(r.Context(), req.Name); err != nil {
		respondStoreError(w, err)
		return
	}

	h.recorder.RecordBestEffort(r.Context(), audit.ActionCategoryCreated, claims.Username,
		fmt.Sprintf("Creata categoria %q da %s", req.Name, claims.Username))

	respondJSON(w, http.StatusCreated, req.Name)
}

// DeleteCategory handles DELETE /api/categories/{name}. The name arrives
// URL-encoded.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid category name")
		return
	}

	if err := h.store.DeleteCategory(r.Context(), name); err != nil {
		respondStoreError(w, err)
		return
	}

	h.recorder.RecordBestEffort(r.Context(), audit.ActionCategoryDeleted, claims.Username,
		fmt.Sprintf("Eliminata categoria %q da %s", name, claims.Username))

	respondJSON(w, http.StatusOK, models.MessageResponse{Message: "category deleted"})
}
