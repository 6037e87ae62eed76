// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/scadenza/internal/logging"
	"github.com/tomtom215/scadenza/internal/models"
)

type contextKey string

// ClaimsContextKey carries the authenticated identity through the request
// context.
const ClaimsContextKey contextKey = "claims"

// Middleware enforces authentication and admin authorization on HTTP
// handlers.
type Middleware struct {
	tokens *JWTManager
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(tokens *JWTManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Authenticate validates the bearer token and injects the identity into the
// request context. The websocket handshake cannot set headers from a
// browser, so a `token` query parameter is accepted as a fallback.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			logging.Debug().Err(err).Msg("token validation failed")
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin rejects non-admin identities with 403. Must run inside
// Authenticate.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil || !claims.IsAdmin {
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Admin privileges required")
			return
		}
		next(w, r)
	}
}

// ClaimsFromContext returns the authenticated identity, or nil outside an
// authenticated request.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*Claims)
	return claims
}

func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", ErrInvalidToken
		}
		return parts[1], nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrInvalidToken
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := models.ErrorResponse{Error: models.APIError{Code: code, Message: message}}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		logging.Error().Err(err).Msg("failed to write auth error response")
	}
}
