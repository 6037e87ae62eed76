// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package models

// Request bodies accepted by the HTTP API. Struct tags drive
// go-playground/validator before any store call.

// LoginRequest carries credentials for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the success body of POST /api/auth/login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ChangePasswordRequest carries the body of POST /api/auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// CreateUserRequest carries the body of POST /api/users (admin only).
type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	IsAdmin  bool   `json:"isAdmin"`
}

// UpdateUserRequest carries the body of PUT /api/users/{id}. Password is
// optional: when empty the stored hash is kept.
type UpdateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"omitempty,min=8"`
	IsAdmin  bool   `json:"isAdmin"`
}

// DeadlineRequest carries the body of POST /api/deadlines and
// PUT /api/deadlines/{id}. Entity-level rules (date format, priority and
// prealert vocabulary) are enforced by Deadline.Validate at the store
// boundary.
type DeadlineRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Date        string   `json:"date" validate:"required"`
	Time        string   `json:"time" validate:"required"`
	Category    string   `json:"category"`
	Priority    Priority `json:"priority" validate:"required"`
	Prealert    []string `json:"prealert"`
	AssignedTo  []string `json:"assignedTo"`
}

// CategoryRequest carries the body of POST /api/categories.
type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

// NotificationRequest is a client-originated notification relayed through
// the broadcast channel.
type NotificationRequest struct {
	Title      string `json:"title" validate:"required"`
	Message    string `json:"message" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=deadline system user"`
	DeadlineID int64  `json:"deadlineId"`
}
