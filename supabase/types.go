// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package supabase

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config holds Supabase client configuration.
type Config struct {
	// ProjectURL is the Supabase project URL (e.g. https://xxx.supabase.co)
	ProjectURL string

	// AnonKey is the public API key, sent as the apikey header
	AnonKey string

	// ServiceKey bypasses row level security; needed for storage uploads
	ServiceKey string

	// JWTSecret enables local HS256 session verification
	JWTSecret string

	// Timeout for HTTP requests (default 10s)
	Timeout time.Duration

	// HTTPClient overrides the default client, mainly for tests
	HTTPClient *http.Client
}

// User is a Supabase auth user.
type User struct {
	ID           string         `json:"id"`
	Aud          string         `json:"aud,omitempty"`
	Role         string         `json:"role,omitempty"`
	Email        string         `json:"email"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// DisplayName is the user_metadata display name, else the email local part
func (u *User) DisplayName() string {
	if name, ok := u.UserMetadata["display_name"].(string); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	local, _, _ := strings.Cut(u.Email, "@")
	if local == "" {
		return "fan"
	}
	return local
}

// Session is a signed-in auth session.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// Error is a non-2xx answer from a Supabase API.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
	StatusCode int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("supabase: %s (status %d)", e.Message, e.StatusCode)
}

// IsAuthError reports whether the error means bad credentials or token
func IsAuthError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusForbidden
}
