// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/metrics"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
)

const (
	defaultChatLimit = 100
	maxChatLimit     = 500
	maxChatLength    = 500
)

type ChatHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	limiter *middleware.RateLimiter
}

func NewChatHandler(db *sql.DB, cfg cliparse.Config, limiter *middleware.RateLimiter) *ChatHandler {
	return &ChatHandler{db: db, cfg: cfg, limiter: limiter}
}

// ListMessages handles GET /chat/messages. The newest page is selected and
// returned oldest first, the order the chat window renders.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := defaultChatLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxChatLimit)
	}

	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "before must be an RFC3339 timestamp")
			return
		}
		before = &t
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, user_id, display_name, message, created_at FROM (
			SELECT id, user_id, display_name, message, created_at
			FROM chat_messages
			WHERE $1::timestamptz IS NULL OR created_at < $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`, before, limit)
	if err != nil {
		slog.Error("failed to query chat messages", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.DisplayName, &m.Message, &m.CreatedAt); err != nil {
			slog.Error("failed to scan chat message", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate chat messages", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, messages)
}

// PostMessage handles POST /chat/messages. Delivery to other viewers
// happens through the realtime channel on the chat_messages insert.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req models.PostMessageRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	text := strings.TrimSpace(req.Message)
	if text == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "message is required")
		return
	}
	if utf8.RuneCountInString(text) > maxChatLength {
		middleware.ErrorResponse(w, http.StatusBadRequest, "message must be at most 500 characters")
		return
	}

	if !h.limiter.Allow("user:" + user.ID) {
		metrics.ChatRateLimited()
		w.Header().Set("Retry-After", "1")
		middleware.ErrorResponse(w, http.StatusTooManyRequests, "You are sending messages too quickly")
		return
	}

	var profileName sql.NullString
	err := h.db.QueryRowContext(r.Context(),
		"SELECT display_name FROM profiles WHERE id::text = $1", user.ID).Scan(&profileName)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query profile", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	displayName := user.DisplayName()
	if profileName.Valid && strings.TrimSpace(profileName.String) != "" {
		displayName = profileName.String
	}

	msg := models.ChatMessage{
		UserID:      user.ID,
		DisplayName: displayName,
		Message:     text,
	}
	err = h.db.QueryRowContext(r.Context(), `
		INSERT INTO chat_messages (user_id, display_name, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, user.ID, displayName, text).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		slog.Error("failed to insert chat message", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	metrics.ChatMessagePosted()
	middleware.JSONResponse(w, http.StatusCreated, msg)
}
