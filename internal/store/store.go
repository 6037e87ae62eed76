// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

// Package store defines the Record Store contract and its BadgerDB
// implementation.
//
// The same capability interfaces are satisfied by two backends: the embedded
// BadgerStore (the server's durable store, doubling as the client's local
// device store) and the networked client (internal/client.RemoteStore). The
// Deadline Lifecycle Controller selects between them per operation, so the
// contract is deliberately the narrowest thing both can honor.
package store

import (
	"context"
	"errors"

	"github.com/tomtom215/scadenza/internal/models"
)

// Sentinel errors shared by every Store implementation.
var (
	// ErrNotFound is returned when an id or name does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a uniqueness constraint (username,
	// category name) is violated.
	ErrConflict = errors.New("record already exists")
)

// UserUpdate is a partial user mutation. An empty Password keeps the
// stored credential.
type UserUpdate struct {
	Username string
	Password string
	IsAdmin  bool
}

// DeadlineUpdate is a partial deadline mutation: the editable fields of a
// deadline. Completed, CreatedBy and CreatedAt are never touched by an edit.
type DeadlineUpdate struct {
	Title       string
	Description string
	Date        string
	Time        string
	Category    string
	Priority    models.Priority
	Prealert    []string
	AssignedTo  []string
}

// UserStore persists accounts. Usernames are unique.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// DeadlineStore persists deadlines. ListDeadlines is ordered by
// (date ascending, time ascending).
type DeadlineStore interface {
	CreateDeadline(ctx context.Context, d *models.Deadline) (*models.Deadline, error)
	ListDeadlines(ctx context.Context) ([]models.Deadline, error)
	UpdateDeadline(ctx context.Context, id int64, upd DeadlineUpdate) (*models.Deadline, error)
	DeleteDeadline(ctx context.Context, id int64) error

	// ToggleDeadlineCompleted flips the completed flag and returns the
	// updated record. Applying it twice restores the original value.
	ToggleDeadlineCompleted(ctx context.Context, id int64) (*models.Deadline, error)
}

// CategoryStore persists category names. Names are unique; listing is
// sorted ascending.
type CategoryStore interface {
	CreateCategory(ctx context.Context, name string) error
	ListCategories(ctx context.Context) ([]string, error)
	DeleteCategory(ctx context.Context, name string) error
}

// LogStore persists the append-only activity log, read back newest first.
type LogStore interface {
	AppendLog(ctx context.Context, e *models.ActivityLogEntry) error
	ListLogs(ctx context.Context, limit int) ([]models.ActivityLogEntry, error)

	// ClearLogs bulk-removes every entry. Local-mode maintenance only.
	ClearLogs(ctx context.Context) error
}

// Store is the full Record Store contract.
type Store interface {
	UserStore
	DeadlineStore
	CategoryStore
	LogStore
}
