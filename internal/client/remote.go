// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/scadenza/internal/models"
	"github.com/tomtom215/scadenza/internal/store"
)

// RemoteStore is the Record Store backed by a Scadenza server over
// JSON/HTTP. It satisfies the same contract as the embedded store, so the
// lifecycle controller can switch between them per operation.
type RemoteStore struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ store.Store = (*RemoteStore)(nil)

// NewRemoteStore creates a RemoteStore for the given base URL
// (e.g. http://host:3000). The trailing slash is trimmed.
func NewRemoteStore(baseURL string, timeout time.Duration) *RemoteStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken installs the session credential sent on every request.
func (r *RemoteStore) SetToken(token string) {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
}

// Token returns the current session credential.
func (r *RemoteStore) Token() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.token
}

// Login authenticates against the server and installs the returned token.
func (r *RemoteStore) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	err := r.do(ctx, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	r.SetToken(resp.Token)
	return &resp, nil
}

// ChangePassword updates the current account's password.
func (r *RemoteStore) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return r.do(ctx, http.MethodPost, "/api/auth/change-password", models.ChangePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	}, nil)
}

// Health probes server reachability without authentication.
func (r *RemoteStore) Health(ctx context.Context) error {
	return r.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// ---- UserStore ----

func (r *RemoteStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	var created models.User
	err := r.do(ctx, http.MethodPost, "/api/users", models.CreateUserRequest{
		Username: u.Username,
		Password: u.Password,
		IsAdmin:  u.IsAdmin,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetUser scans the user list; the server exposes no by-id endpoint.
func (r *RemoteStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *RemoteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *RemoteStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *RemoteStore) UpdateUser(ctx context.Context, id int64, upd store.UserUpdate) (*models.User, error) {
	var updated models.User
	err := r.do(ctx, http.MethodPut, fmt.Sprintf("/api/users/%d", id), models.UpdateUserRequest{
		Username: upd.Username,
		Password: upd.Password,
		IsAdmin:  upd.IsAdmin,
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *RemoteStore) DeleteUser(ctx context.Context, id int64) error {
	return r.do(ctx, http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil, nil)
}

// ---- DeadlineStore ----

func (r *RemoteStore) CreateDeadline(ctx context.Context, d *models.Deadline) (*models.Deadline, error) {
	var created models.Deadline
	if err := r.do(ctx, http.MethodPost, "/api/deadlines", deadlineRequest(d), &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *RemoteStore) ListDeadlines(ctx context.Context) ([]models.Deadline, error) {
	var deadlines []models.Deadline
	if err := r.do(ctx, http.MethodGet, "/api/deadlines", nil, &deadlines); err != nil {
		return nil, err
	}
	return deadlines, nil
}

func (r *RemoteStore) UpdateDeadline(ctx context.Context, id int64, upd store.DeadlineUpdate) (*models.Deadline, error) {
	var updated models.Deadline
	req := models.DeadlineRequest{
		Title:       upd.Title,
		Description: upd.Description,
		Date:        upd.Date,
		Time:        upd.Time,
		Category:    upd.Category,
		Priority:    upd.Priority,
		Prealert:    upd.Prealert,
		AssignedTo:  upd.AssignedTo,
	}
	if err := r.do(ctx, http.MethodPut, fmt.Sprintf("/api/deadlines/%d", id), req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *RemoteStore) DeleteDeadline(ctx context.Context, id int64) error {
	return r.do(ctx, http.MethodDelete, fmt.Sprintf("/api/deadlines/%d", id), nil, nil)
}

func (r *RemoteStore) ToggleDeadlineCompleted(ctx context.Context, id int64) (*models.Deadline, error) {
	var toggled models.Deadline
	if err := r.do(ctx, http.MethodPatch, fmt.Sprintf("/api/deadlines/%d/complete", id), nil, &toggled); err != nil {
		return nil, err
	}
	return &toggled, nil
}

// ---- CategoryStore ----

func (r *RemoteStore) CreateCategory(ctx context.Context, name string) error {
	return r.do(ctx, http.MethodPost, "/api/categories", models.CategoryRequest{Name: name}, nil)
}

func (r *RemoteStore) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.do(ctx, http.MethodGet, "/api/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *RemoteStore) DeleteCategory(ctx context.Context, name string) error {
	return r.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(name), nil, nil)
}

// ---- LogStore ----

// AppendLog is a no-op: the server records its own audit entry for every
// mutation it accepts, so a second client-side append would duplicate it.
func (r *RemoteStore) AppendLog(_ context.Context, _ *models.ActivityLogEntry) error {
	return nil
}

func (r *RemoteStore) ListLogs(ctx context.Context, _ int) ([]models.ActivityLogEntry, error) {
	var logs []models.ActivityLogEntry
	if err := r.do(ctx, http.MethodGet, "/api/logs", nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ClearLogs is local-mode maintenance; the server exposes no bulk delete.
func (r *RemoteStore) ClearLogs(_ context.Context) error {
	return fmt.Errorf("%w: logs cannot be cleared on the server", ErrForbidden)
}

// deadlineRequest projects a deadline onto the wire request shape.
func deadlineRequest(d *models.Deadline) models.DeadlineRequest {
	return models.DeadlineRequest{
		Title:       d.Title,
		Description: d.Description,
		Date:        d.Date,
		Time:        d.Time,
		Category:    d.Category,
		Priority:    d.Priority,
		Prealert:    d.Prealert,
		AssignedTo:  d.AssignedTo,
	}
}

// do performs one request and maps the response onto the shared error
// taxonomy. Transport failures wrap ErrNetwork; HTTP statuses map to
// ErrUnauthorized, ErrForbidden, store.ErrNotFound and store.ErrConflict.
func (r *RemoteStore) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := r.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	message := "request failed"
	var envelope models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", store.ErrNotFound, message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", store.ErrConflict, message)
	default:
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, message)
	}
}
