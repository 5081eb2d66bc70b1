// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/riot-network/supabase"
)

// SessionVerifier resolves a bearer token to a user
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*supabase.User, error)
}

// AdminChecker decides whether a user may use admin routes
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID, email string) (bool, error)
}

type contextKey string

const (
	userKey       contextKey = "user"
	tokenKey      contextKey = "token"
	sessionErrKey contextKey = "session_error"
)

// WithUser stores an authenticated user in the context
func WithUser(ctx context.Context, user *supabase.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the session user, or nil for anonymous requests
func UserFromContext(ctx context.Context) *supabase.User {
	user, _ := ctx.Value(userKey).(*supabase.User)
	return user
}

// TokenFromContext returns the raw bearer token of the session
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// BearerToken extracts the token from an Authorization header
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithSession attaches the user of a valid bearer token to the request.
// It never rejects: anonymous and invalid sessions pass through without a
// user, and RequireUser decides what that means for the route.
func WithSession(v SessionVerifier) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next(w, r)
				return
			}

			user, err := v.Verify(r.Context(), token)
			if err != nil {
				if !errors.Is(err, supabase.ErrInvalidSession) {
					slog.Error("failed to verify session", "error", err)
				}
				next(w, r.WithContext(context.WithValue(r.Context(), sessionErrKey, err)))
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = context.WithValue(ctx, tokenKey, token)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireUser answers 401 without a session, and 502 when the session could
// not be checked because the auth provider was unreachable.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) != nil {
			next(w, r)
			return
		}

		if err, ok := r.Context().Value(sessionErrKey).(error); ok && !errors.Is(err, supabase.ErrInvalidSession) {
			ErrorResponse(w, http.StatusBadGateway, "Could not verify session")
			return
		}
		ErrorResponse(w, http.StatusUnauthorized, "Sign in required")
	}
}

// RequireAdmin layers an admin check over RequireUser: 403 for non-admins.
func RequireAdmin(a AdminChecker) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return RequireUser(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())

			isAdmin, err := a.IsAdmin(r.Context(), user.ID, user.Email)
			if err != nil {
				slog.Error("failed to check admin role", "error", err, "user_id", user.ID)
				ErrorResponse(w, http.StatusInternalServerError, "Failed to check permissions")
				return
			}
			if !isAdmin {
				slog.Warn("admin route denied", "user_id", user.ID, "path", r.URL.Path)
				ErrorResponse(w, http.StatusForbidden, "Admin access required")
				return
			}

			next(w, r)
		})
	}
}
