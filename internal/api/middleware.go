// Package api implements the Ansuz REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const callerIDKey contextKey = "caller_id"

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CallerMiddleware extracts the already-resolved caller identity from
// the X-User-ID header. Authentication itself happens upstream; this
// service only consumes the resolved identity.
func CallerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid X-User-ID header"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerIDKey, id)))
	})
}

// callerID returns the resolved caller identity, if any.
func callerID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(callerIDKey).(uuid.UUID)
	return id, ok
}
