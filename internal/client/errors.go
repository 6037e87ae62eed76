// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

// Package client implements the networked Record Store, the Deadline
// Lifecycle Controller, the broadcast event listener and the persisted
// device state used by the terminal client.
package client

import "errors"

// Sentinel errors produced by the networked store in addition to the
// shared store sentinels.
var (
	// ErrNetwork is returned when the server could not be reached at all:
	// connection refused, timeout, DNS failure.
	ErrNetwork = errors.New("server unreachable")

	// ErrUnauthorized is returned on 401: missing, expired or invalid
	// session credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned on 403: the session lacks the required
	// privilege.
	ErrForbidden = errors.New("forbidden")
)
