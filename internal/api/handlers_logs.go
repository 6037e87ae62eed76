// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package api

import (
	"net/http"
)

// logListLimit caps how many activity log entries a single request returns.
const logListLimit = 100

// ListLogs handles GET /api/logs: the most recent entries, newest first.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.ListLogs(r.Context(), logListLimit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
