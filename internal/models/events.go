// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Broadcast event kinds fanned out over the websocket channel. Delivery is
// at-most-once: a disconnected client misses the event and reconciles on its
// next full list fetch.
const (
	EventUserCreated       = "user_created"
	EventUserUpdated       = "user_updated"
	EventUserDeleted       = "user_deleted"
	EventDeadlineCreated   = "deadline_created"
	EventDeadlineUpdated   = "deadline_updated"
	EventDeadlineDeleted   = "deadline_deleted"
	EventDeadlineCompleted = "deadline_completed"
	EventNotification      = "notification"
)

// Event is a broadcast message as decoded by a client. Data stays raw until
// the kind is known.
type Event struct {
	Kind string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DeletedRef is the payload of *_deleted events: only the id of the removed
// entity.
type DeletedRef struct {
	ID int64 `json:"id"`
}

// Notification is a user-visible message relayed to every connected client.
type Notification struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	DeadlineID int64     `json:"deadlineId,omitempty"`
}
