// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/scadenza/internal/audit"
	"github.com/tomtom215/scadenza/internal/auth"
	"github.com/tomtom215/scadenza/internal/config"
	"github.com/tomtom215/scadenza/internal/models"
	"github.com/tomtom215/scadenza/internal/store"
	"github.com/tomtom215/scadenza/internal/websocket"
)

const (
	testAdminUsername = "admin"
	testAdminPassword = "SERISRL25%"
)

// testServer bundles a fully wired API over an in-memory store.
type testServer struct {
	*httptest.Server
	store *store.BadgerStore
	hub   *websocket.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := store.EnsureSeedData(context.Background(), s, testAdminUsername, hash); err != nil {
		t.Fatalf("EnsureSeedData: %v", err)
	}

	tokens, err := auth.NewJWTManager("test-secret-0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()

	recorder := audit.NewRecorder(s)
	sessions := auth.NewSessionManager(s, tokens, recorder)
	handler := NewHandler(s, sessions, recorder, hub, testAdminUsername)

	cfg := &config.Config{}
	cfg.Security.CORSOrigins = []string{"*"}
	router := NewRouter(handler, auth.NewMiddleware(tokens), auth.NewRateLimiter(1000, time.Minute), cfg)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: s, hub: hub}
}

// do issues one request with an optional bearer token and JSON body.
func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func (ts *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
		Username: username,
		Password: password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login as %s: expected 200, got %d", username, resp.StatusCode)
	}
	body := decodeBody[models.LoginResponse](t, resp)
	if body.Token == "" {
		t.Fatal("login returned an empty token")
	}
	if body.User.Password != "" {
		t.Error("login response must not carry the credential")
	}
	return body.Token
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
	body := decodeBody[models.ErrorResponse](t, resp)
	if body.Error.Code != code {
		t.Errorf("expected error code %q, got %q", code, body.Error.Code)
	}
}

func TestAPI_Health(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody[map[string]interface{}](t, resp)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if _, ok := body["connectedClients"]; !ok {
		t.Error("expected connectedClients in the health body")
	}
}

func TestAPI_LoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body models.LoginRequest
	}{
		{"wrong password", models.LoginRequest{Username: testAdminUsername, Password: "nope"}},
		{"unknown user", models.LoginRequest{Username: "ghost", Password: "whatever"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/auth/login", "", tt.body)
			expectError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: testAdminUsername})
		expectError(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")
	})
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	ts := newTestServer(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/deadlines"},
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/categories"},
		{http.MethodGet, "/api/logs"},
		{http.MethodPost, "/api/deadlines"},
	}
	for _, p := range paths {
		resp := ts.do(t, p.method, p.path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s without token: expected 401, got %d", p.method, p.path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestAPI_UserManagement(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.login(t, testAdminUsername, testAdminPassword)

	// Create a regular user.
	resp := ts.do(t, http.MethodPost, "/api/users", adminToken, models.CreateUserRequest{
		Username: "mario",
		Password: "mario-password",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d", resp.StatusCode)
	}
	created := decodeBody[models.User](t, resp)
	if created.Password != "" {
		t.Error("created user response must not carry the credential")
	}

	// Duplicate username conflicts.
	resp = ts.do(t, http.MethodPost, "/api/users", adminToken, models.CreateUserRequest{
		Username: "mario",
		Password: "other-password",
	})
	expectError(t, resp, http.StatusConflict, "CONFLICT")

	// The new user can log in but not manage users.
	marioToken := ts.login(t, "mario", "mario-password")
	resp = ts.do(t, http.MethodPost, "/api/users", marioToken, models.CreateUserRequest{
		Username: "eve",
		Password: "eve-password",
	})
	expectError(t, resp, http.StatusForbidden, "FORBIDDEN")

	resp = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), marioToken, nil)
	expectError(t, resp, http.StatusForbidden, "FORBIDDEN")

	// Listing is open to any authenticated user and strips credentials.
	resp = ts.do(t, http.MethodGet, "/api/users", marioToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list users: expected 200, got %d", resp.StatusCode)
	}
	users := decodeBody[[]models.User](t, resp)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.Password != "" {
			t.Errorf("user %s: credential leaked in listing", u.Username)
		}
	}

	// Update by admin.
	resp = ts.do(t, http.MethodPut, fmt.Sprintf("/api/users/%d", created.ID), adminToken, models.UpdateUserRequest{
		Username: "mario",
		IsAdmin:  true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update user: expected 200, got %d", resp.StatusCode)
	}
	updated := decodeBody[models.User](t, resp)
	if !updated.IsAdmin {
		t.Error("expected isAdmin true after update")
	}
	// The empty password kept the stored hash.
	ts.login(t, "mario", "mario-password")

	// Delete by admin.
	resp = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete user: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), adminToken, nil)
	expectError(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestAPI_AdminAccountNotDeletable(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.login(t, testAdminUsername, testAdminPassword)

	resp := ts.do(t, http.MethodGet, "/api/users", adminToken, nil)
	users := decodeBody[[]models.User](t, resp)
	if len(users) != 1 {
		t.Fatalf("expected only the seeded admin, got %d users", len(users))
	}

	resp = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", users[0].ID), adminToken, nil)
	expectError(t, resp, http.StatusForbidden, "FORBIDDEN")
}

func TestAPI_DeadlineLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, testAdminUsername, testAdminPassword)

	// Create. Provenance is server-assigned.
	resp := ts.do(t, http.MethodPost, "/api/deadlines", token, models.DeadlineRequest{
		Title:    "fattura trimestrale",
		Date:     "2026-09-30",
		Time:     "17:00",
		Category: "Lavoro",
		Priority: models.PriorityHigh,
		Prealert: []string{"1giorno", "1ora"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create deadline: expected 201, got %d", resp.StatusCode)
	}
	created := decodeBody[models.Deadline](t, resp)
	if created.ID == 0 {
		t.Error("expected a server-assigned id")
	}
	if created.CreatedBy != testAdminUsername {
		t.Errorf("expected createdBy %q, got %q", testAdminUsername, created.CreatedBy)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected a server-assigned createdAt")
	}

	// Invalid payloads are rejected before the store.
	resp = ts.do(t, http.MethodPost, "/api/deadlines", token, models.DeadlineRequest{
		Title: "no date", Time: "10:00", Priority: models.PriorityLow,
	})
	expectError(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")

	resp = ts.do(t, http.MethodPost, "/api/deadlines", token, models.DeadlineRequest{
		Title: "bad prealert", Date: "2026-09-30", Time: "10:00",
		Priority: models.PriorityLow, Prealert: []string{"2ore"},
	})
	expectError(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")

	// Update.
	resp = ts.do(t, http.MethodPut, fmt.Sprintf("/api/deadlines/%d", created.ID), token, models.DeadlineRequest{
		Title:    "fattura trimestrale Q3",
		Date:     "2026-10-01",
		Time:     "12:00",
		Category: "Lavoro",
		Priority: models.PriorityMedium,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update deadline: expected 200, got %d", resp.StatusCode)
	}
	updated := decodeBody[models.Deadline](t, resp)
	if updated.Title != "fattura trimestrale Q3" {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.CreatedBy != testAdminUsername {
		t.Error("update must preserve provenance")
	}

	// Toggle completion twice.
	resp = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/deadlines/%d/complete", created.ID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d", resp.StatusCode)
	}
	toggled := decodeBody[models.Deadline](t, resp)
	if !toggled.Completed {
		t.Error("first toggle should complete")
	}
	resp = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/deadlines/%d/complete", created.ID), token, nil)
	toggled = decodeBody[models.Deadline](t, resp)
	if toggled.Completed {
		t.Error("second toggle should reopen")
	}

	// Delete, then delete again.
	resp = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/deadlines/%d", created.ID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/deadlines/%d", created.ID), token, nil)
	expectError(t, resp, http.StatusNotFound, "NOT_FOUND")

	resp = ts.do(t, http.MethodPatch, "/api/deadlines/abc/complete", token, nil)
	expectError(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestAPI_Categories(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, testAdminUsername, testAdminPassword)

	// The success body of a create is the bare name.
	resp := ts.do(t, http.MethodPost, "/api/categories", token, models.CategoryRequest{Name: "Fiscale"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create category: expected 201, got %d", resp.StatusCode)
	}
	name := decodeBody[string](t, resp)
	if name != "Fiscale" {
		t.Errorf("expected bare name body, got %q", name)
	}

	resp = ts.do(t, http.MethodPost, "/api/categories", token, models.CategoryRequest{Name: "Fiscale"})
	expectError(t, resp, http.StatusConflict, "CONFLICT")

	resp = ts.do(t, http.MethodGet, "/api/categories", token, nil)
	categories := decodeBody[[]string](t, resp)
	if len(categories) != len(store.DefaultCategories)+1 {
		t.Fatalf("expected %d categories, got %v", len(store.DefaultCategories)+1, categories)
	}

	// Names with spaces survive URL encoding.
	resp = ts.do(t, http.MethodPost, "/api/categories", token, models.CategoryRequest{Name: "Scadenze fiscali"})
	resp.Body.Close()
	resp = ts.do(t, http.MethodDelete, "/api/categories/Scadenze%20fiscali", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete encoded category: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ts.do(t, http.MethodDelete, "/api/categories/Inesistente", token, nil)
	expectError(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestAPI_ActivityLog(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, testAdminUsername, testAdminPassword)

	resp := ts.do(t, http.MethodPost, "/api/deadlines", token, models.DeadlineRequest{
		Title: "audited", Date: "2026-09-30", Time: "09:00", Priority: models.PriorityLow,
	})
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/logs", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list logs: expected 200, got %d", resp.StatusCode)
	}
	logs := decodeBody[[]models.ActivityLogEntry](t, resp)
	if len(logs) < 2 {
		t.Fatalf("expected login and create entries, got %d", len(logs))
	}

	// Newest first: the deadline creation precedes the login in the list.
	if logs[0].Action != audit.ActionDeadlineCreated {
		t.Errorf("expected newest entry %q, got %q", audit.ActionDeadlineCreated, logs[0].Action)
	}
	wantDetails := fmt.Sprintf("Creata scadenza %q da %s", "audited", testAdminUsername)
	if logs[0].Details != wantDetails {
		t.Errorf("expected details %q, got %q", wantDetails, logs[0].Details)
	}
	if logs[len(logs)-1].Action != audit.ActionLogin {
		t.Errorf("expected oldest entry %q, got %q", audit.ActionLogin, logs[len(logs)-1].Action)
	}
}

func TestAPI_ChangePassword(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, testAdminUsername, testAdminPassword)

	resp := ts.do(t, http.MethodPost, "/api/auth/change-password", token, models.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "completely-new-pw",
	})
	expectError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")

	// Too-short new passwords fail struct validation.
	resp = ts.do(t, http.MethodPost, "/api/auth/change-password", token, models.ChangePasswordRequest{
		CurrentPassword: testAdminPassword,
		NewPassword:     "short",
	})
	expectError(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")

	resp = ts.do(t, http.MethodPost, "/api/auth/change-password", token, models.ChangePasswordRequest{
		CurrentPassword: testAdminPassword,
		NewPassword:     "completely-new-pw",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("change password: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	ts.login(t, testAdminUsername, "completely-new-pw")
}
