// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/scadenza/internal/auth"
	"github.com/tomtom215/scadenza/internal/logging"
	"github.com/tomtom215/scadenza/internal/models"
)

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	token, user, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
			return
		}
		logging.Error().Err(err).Msg("login failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	respondJSON(w, http.StatusOK, models.LoginResponse{
		Token: token,
		User:  user.Public(),
	})
}

// ChangePassword handles POST /api/auth/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var req models.ChangePasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.sessions.ChangePassword(r.Context(), claims, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "current password is incorrect")
			return
		}
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.MessageResponse{Message: "password updated"})
}
