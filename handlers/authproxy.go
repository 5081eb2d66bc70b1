// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
)

const authTimeout = 10 * time.Second

type AuthHandler struct {
	db       *sql.DB
	provider AuthProvider
}

func NewAuthHandler(db *sql.DB, provider AuthProvider) *AuthHandler {
	return &AuthHandler{db: db, provider: provider}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := parseCredentials(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authTimeout)
	defer cancel()

	session, err := h.provider.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		middleware.UpstreamError(w, err, middleware.ServiceAuth, "Invalid email or password")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, session)
}

// Signup handles POST /auth/signup. A fan profile row is created for the new
// user so chat and admin checks can find it.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := parseCredentials(w, r)
	if !ok {
		return
	}
	if len(req.Password) < 6 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authTimeout)
	defer cancel()

	session, err := h.provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		middleware.UpstreamError(w, err, middleware.ServiceAuth, "Could not sign up with these details")
		return
	}

	if session.User != nil && session.User.ID != "" {
		_, err := h.db.ExecContext(ctx, `
			INSERT INTO profiles (id, email, role)
			VALUES ($1, $2, 'fan')
			ON CONFLICT (id) DO NOTHING
		`, session.User.ID, session.User.Email)
		if err != nil {
			slog.Error("failed to create profile", "error", err, "user_id", session.User.ID)
		}
	}

	middleware.JSONResponse(w, http.StatusCreated, session)
}

func parseCredentials(w http.ResponseWriter, r *http.Request) (models.LoginRequest, bool) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return req, false
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email and password are required")
		return req, false
	}
	return req, true
}
