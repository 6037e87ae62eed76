// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/scadenza/internal/audit"
	"github.com/tomtom215/scadenza/internal/auth"
	"github.com/tomtom215/scadenza/internal/models"
	"github.com/tomtom215/scadenza/internal/store"
)

// WarnFunc receives user-facing warnings, one per degraded operation.
type WarnFunc func(message string)

// Controller drives the deadline lifecycle for one client. Every operation
// picks a strategy from the persisted server-mode flag: remote calls mirror
// their result into the local cache, and a transport failure degrades that
// single operation to local semantics with exactly one warning and no
// automatic retry. A semantic rejection from the server surfaces to the
// caller unchanged.
//
// All state lives behind one mutex; the listener and the scheduler reach
// the projection only through locked methods.
type Controller struct {
	state    *AppState
	local    *store.BadgerStore
	remote   *RemoteStore // nil when the installation is local-only
	recorder *audit.Recorder
	warn     WarnFunc

	mu         sync.Mutex
	deadlines  map[int64]models.Deadline
	categories []string
}

// NewController wires a controller. warn must not be nil; remote may be.
func NewController(state *AppState, local *store.BadgerStore, remote *RemoteStore, recorder *audit.Recorder, warn WarnFunc) *Controller {
	return &Controller{
		state:     state,
		local:     local,
		remote:    remote,
		recorder:  recorder,
		warn:      warn,
		deadlines: make(map[int64]models.Deadline),
	}
}

// useRemote reports whether the next operation should try the server.
func (c *Controller) useRemote() bool {
	return c.remote != nil && c.state.ServerMode()
}

// degrade surfaces the single warning for a failed server operation.
func (c *Controller) degrade(op string, err error) {
	c.warn(fmt.Sprintf("server unavailable, %s handled locally: %v", op, err))
}

// recoverable reports whether a remote failure may be handled locally.
// Semantic rejections from the server (bad session, missing permission,
// unknown record, conflict) surface to the caller unchanged and leave no
// local state behind; only transport failures fall back.
func recoverable(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrConflict):
		return false
	}
	return true
}

// Login authenticates and persists the session. In server mode an
// unreachable server degrades to a local credential check against the
// device store; a rejection from the server stands.
func (c *Controller) Login(ctx context.Context, username, password string) (*models.User, error) {
	if c.useRemote() {
		resp, err := c.remote.Login(ctx, username, password)
		if err == nil {
			user := resp.User
			if err := c.state.SetSession(resp.Token, &user); err != nil {
				return nil, err
			}
			return &user, nil
		}
		if !recoverable(err) {
			return nil, err
		}
		c.degrade("login", err)
	}
	return c.loginLocal(ctx, username, password)
}

func (c *Controller) loginLocal(ctx context.Context, username, password string) (*models.User, error) {
	user, err := c.local.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, auth.ErrInvalidCredentials
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, auth.ErrInvalidCredentials
	}

	if err := c.recorder.Record(ctx, audit.ActionLogin, user.Username,
		fmt.Sprintf("Login effettuato da %s", user.Username)); err != nil {
		return nil, err
	}

	public := user.Public()
	if err := c.state.SetSession("", &public); err != nil {
		return nil, err
	}
	return &public, nil
}

// Logout drops the session and, unless remember-device is set, the cached
// collections. The in-memory projection is always cleared.
func (c *Controller) Logout() error {
	if c.remote != nil {
		c.remote.SetToken("")
	}

	c.mu.Lock()
	c.deadlines = make(map[int64]models.Deadline)
	c.categories = nil
	c.mu.Unlock()

	return c.state.ClearOnLogout()
}

// Load refreshes the projection: a full server fetch in server mode
// (mirrored into the cache), the local store otherwise or when the server
// is unreachable.
func (c *Controller) Load(ctx context.Context) error {
	if c.useRemote() {
		deadlines, err := c.remote.ListDeadlines(ctx)
		if err == nil {
			var categories []string
			categories, err = c.remote.ListCategories(ctx)
			if err == nil {
				if err := c.local.ReplaceDeadlines(ctx, deadlines); err != nil {
					return err
				}
				if err := c.local.ReplaceCategories(ctx, categories); err != nil {
					return err
				}
				c.setProjection(deadlines, categories)
				return nil
			}
		}
		if !recoverable(err) {
			return err
		}
		c.degrade("load", err)
	}

	deadlines, err := c.local.ListDeadlines(ctx)
	if err != nil {
		return err
	}
	categories, err := c.local.ListCategories(ctx)
	if err != nil {
		return err
	}
	c.setProjection(deadlines, categories)
	return nil
}

func (c *Controller) setProjection(deadlines []models.Deadline, categories []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlines = make(map[int64]models.Deadline, len(deadlines))
	for _, d := range deadlines {
		c.deadlines[d.ID] = d
	}
	c.categories = categories
}

// Deadlines returns a snapshot of the projection ordered by date, time and
// id ascending.
func (c *Controller) Deadlines() []models.Deadline {
	c.mu.Lock()
	out := make([]models.Deadline, 0, len(c.deadlines))
	for _, d := range c.deadlines {
		out = append(out, d)
	}
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PendingDeadlines returns the non-completed deadlines, the scheduler's
// working set.
func (c *Controller) PendingDeadlines() []models.Deadline {
	all := c.Deadlines()
	pending := all[:0]
	for _, d := range all {
		if !d.Completed {
			pending = append(pending, d)
		}
	}
	return pending
}

// Categories returns a snapshot of the known category names.
func (c *Controller) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// CreateDeadline persists a new deadline and updates the projection.
func (c *Controller) CreateDeadline(ctx context.Context, d *models.Deadline) (*models.Deadline, error) {
	if c.useRemote() {
		created, err := c.remote.CreateDeadline(ctx, d)
		if err == nil {
			if err := c.local.PutDeadline(ctx, created); err != nil {
				return nil, err
			}
			c.upsert(*created)
			return created, nil
		}
		if !recoverable(err) {
			return nil, err
		}
		c.degrade("create deadline", err)
	}

	d.CreatedBy = c.state.Username()
	d.CreatedAt = time.Now().UTC()
	created, err := c.local.CreateDeadline(ctx, d)
	if err != nil {
		return nil, err
	}

	actor := c.state.Username()
	c.recorder.RecordBestEffort(ctx, audit.ActionDeadlineCreated, actor,
		fmt.Sprintf("Creata scadenza %q da %s", created.Title, actor))
	c.upsert(*created)
	return created, nil
}

// UpdateDeadline edits an existing deadline and updates the projection.
func (c *Controller) UpdateDeadline(ctx context.Context, id int64, upd store.DeadlineUpdate) (*models.Deadline, error) {
	if c.useRemote() {
		updated, err := c.remote.UpdateDeadline(ctx, id, upd)
		if err == nil {
			if err := c.local.PutDeadline(ctx, updated); err != nil {
				return nil, err
			}
			c.upsert(*updated)
			return updated, nil
		}
		if !recoverable(err) {
			return nil, err
		}
		c.degrade("update deadline", err)
	}

	updated, err := c.local.UpdateDeadline(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	actor := c.state.Username()
	c.recorder.RecordBestEffort(ctx, audit.ActionDeadlineUpdated, actor,
		fmt.Sprintf("Modificata scadenza %q da %s", updated.Title, actor))
	c.upsert(*updated)
	return updated, nil
}

// DeleteDeadline removes a deadline. Deleting the same id twice returns
// store.ErrNotFound on the second call.
func (c *Controller) DeleteDeadline(ctx context.Context, id int64) error {
	if c.useRemote() {
		err := c.remote.DeleteDeadline(ctx, id)
		if err == nil {
			if err := c.local.RemoveDeadline(ctx, id); err != nil {
				return err
			}
			c.remove(id)
			return nil
		}
		if !recoverable(err) {
			return err
		}
		c.degrade("delete deadline", err)
	}

	title := ""
	c.mu.Lock()
	if d, ok := c.deadlines[id]; ok {
		title = d.Title
	}
	c.mu.Unlock()

	if err := c.local.DeleteDeadline(ctx, id); err != nil {
		return err
	}

	actor := c.state.Username()
	c.recorder.RecordBestEffort(ctx, audit.ActionDeadlineDeleted, actor,
		fmt.Sprintf("Eliminata scadenza %q da %s", title, actor))
	c.remove(id)
	return nil
}

// ToggleCompleted flips a deadline's completed flag. Toggling twice
// restores the original state.
func (c *Controller) ToggleCompleted(ctx context.Context, id int64) (*models.Deadline, error) {
	if c.useRemote() {
		toggled, err := c.remote.ToggleDeadlineCompleted(ctx, id)
		if err == nil {
			if err := c.local.PutDeadline(ctx, toggled); err != nil {
				return nil, err
			}
			c.upsert(*toggled)
			return toggled, nil
		}
		if !recoverable(err) {
			return nil, err
		}
		c.degrade("toggle deadline", err)
	}

	toggled, err := c.local.ToggleDeadlineCompleted(ctx, id)
	if err != nil {
		return nil, err
	}

	if toggled.Completed {
		actor := c.state.Username()
		c.recorder.RecordBestEffort(ctx, audit.ActionDeadlineComplete, actor,
			fmt.Sprintf("Completata scadenza %q da %s", toggled.Title, actor))
	}
	c.upsert(*toggled)
	return toggled, nil
}

// CreateCategory adds a category name.
func (c *Controller) CreateCategory(ctx context.Context, name string) error {
	if c.useRemote() {
		err := c.remote.CreateCategory(ctx, name)
		if err == nil {
			if err := c.local.CreateCategory(ctx, name); err != nil && !errors.Is(err, store.ErrConflict) {
				return err
			}
			c.refreshCategories(ctx)
			return nil
		}
		if !recoverable(err) {
			return err
		}
		c.degrade("create category", err)
	}

	if err := c.local.CreateCategory(ctx, name); err != nil {
		return err
	}

	actor := c.state.Username()
	c.recorder.RecordBestEffort(ctx, audit.ActionCategoryCreated, actor,
		fmt.Sprintf("Creata categoria %q da %s", name, actor))
	c.refreshCategories(ctx)
	return nil
}

// DeleteCategory removes a category name.
func (c *Controller) DeleteCategory(ctx context.Context, name string) error {
	if c.useRemote() {
		err := c.remote.DeleteCategory(ctx, name)
		if err == nil {
			if err := c.local.DeleteCategory(ctx, name); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			c.refreshCategories(ctx)
			return nil
		}
		if !recoverable(err) {
			return err
		}
		c.degrade("delete category", err)
	}

	if err := c.local.DeleteCategory(ctx, name); err != nil {
		return err
	}

	actor := c.state.Username()
	c.recorder.RecordBestEffort(ctx, audit.ActionCategoryDeleted, actor,
		fmt.Sprintf("Eliminata categoria %q da %s", name, actor))
	c.refreshCategories(ctx)
	return nil
}

// Logs fetches the most recent activity log entries, newest first.
func (c *Controller) Logs(ctx context.Context, limit int) ([]models.ActivityLogEntry, error) {
	if c.useRemote() {
		logs, err := c.remote.ListLogs(ctx, limit)
		if err == nil {
			return logs, nil
		}
		if !recoverable(err) {
			return nil, err
		}
		c.degrade("list logs", err)
	}
	return c.local.ListLogs(ctx, limit)
}

// ClearLogs wipes the local activity log. Local-mode maintenance only.
func (c *Controller) ClearLogs(ctx context.Context) error {
	return c.local.ClearLogs(ctx)
}

// ApplyEvent merges a broadcast event from another client into the
// projection and the local cache. Unknown kinds are ignored.
func (c *Controller) ApplyEvent(ctx context.Context, e models.Event) error {
	switch e.Kind {
	case models.EventDeadlineCreated, models.EventDeadlineUpdated, models.EventDeadlineCompleted:
		var d models.Deadline
		if err := json.Unmarshal(e.Data, &d); err != nil {
			return fmt.Errorf("decode %s event: %w", e.Kind, err)
		}
		if err := c.local.PutDeadline(ctx, &d); err != nil {
			return err
		}
		c.upsert(d)

	case models.EventDeadlineDeleted:
		var ref models.DeletedRef
		if err := json.Unmarshal(e.Data, &ref); err != nil {
			return fmt.Errorf("decode %s event: %w", e.Kind, err)
		}
		if err := c.local.RemoveDeadline(ctx, ref.ID); err != nil {
			return err
		}
		c.remove(ref.ID)
	}
	return nil
}

func (c *Controller) upsert(d models.Deadline) {
	c.mu.Lock()
	c.deadlines[d.ID] = d
	c.mu.Unlock()
}

func (c *Controller) remove(id int64) {
	c.mu.Lock()
	delete(c.deadlines, id)
	c.mu.Unlock()
}

// refreshCategories re-reads the category list from the active source,
// best effort.
func (c *Controller) refreshCategories(ctx context.Context) {
	var (
		categories []string
		err        error
	)
	if c.useRemote() {
		categories, err = c.remote.ListCategories(ctx)
		if err == nil {
			_ = c.local.ReplaceCategories(ctx, categories)
		}
	}
	if categories == nil {
		categories, err = c.local.ListCategories(ctx)
		if err != nil {
			return
		}
	}
	c.mu.Lock()
	c.categories = categories
	c.mu.Unlock()
}
