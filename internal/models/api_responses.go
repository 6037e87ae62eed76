// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package models

// APIError describes a failed request. Code is a stable machine-readable
// identifier (UNAUTHORIZED, FORBIDDEN, NOT_FOUND, CONFLICT,
// VALIDATION_ERROR, INTERNAL); Message is safe to show to a user.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// MessageResponse is the JSON body of mutations that return no entity
// (deletes, password change).
type MessageResponse struct {
	Message string `json:"message"`
}
