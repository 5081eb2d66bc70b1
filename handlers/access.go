// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/muxvideo"
)

type AccessHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	authz AccessChecker
}

func NewAccessHandler(db *sql.DB, cfg cliparse.Config, authz AccessChecker) *AccessHandler {
	return &AccessHandler{db: db, cfg: cfg, authz: authz}
}

// HasAccess handles GET /has-access. It always answers 200 so the client
// can decide between the player and the paywall.
func (h *AccessHandler) HasAccess(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		middleware.JSONResponse(w, http.StatusOK, models.AccessResponse{})
		return
	}

	eventID := r.URL.Query().Get("event_id")
	if eventID != "" {
		if _, err := uuid.Parse(eventID); err != nil {
			middleware.JSONResponse(w, http.StatusOK, models.AccessResponse{Authed: true})
			return
		}
	}

	ok, err := h.authz.HasAccess(r.Context(), user.ID, user.Email, eventID)
	if err != nil {
		slog.Error("failed to check access", "error", err, "user_id", user.ID)
		ok = false
	}

	middleware.JSONResponse(w, http.StatusOK, models.AccessResponse{
		Authed:    true,
		HasAccess: ok,
	})
}

// GetStream handles GET /stream
func (h *AccessHandler) GetStream(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	eventID := r.URL.Query().Get("event_id")
	if eventID != "" {
		if _, err := uuid.Parse(eventID); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid event_id")
			return
		}
	}

	ok, err := h.authz.HasAccess(r.Context(), user.ID, user.Email, eventID)
	if err != nil {
		slog.Error("failed to check access", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to check access")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusForbidden, "Purchase required")
		return
	}

	playbackID := h.cfg.MuxPlaybackID
	if eventID != "" {
		var eventPlayback sql.NullString
		err := h.db.QueryRowContext(r.Context(),
			"SELECT playback_id FROM events WHERE id = $1", eventID).Scan(&eventPlayback)
		if err == sql.ErrNoRows {
			middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
			return
		}
		if err != nil {
			slog.Error("failed to query event playback", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if eventPlayback.Valid && eventPlayback.String != "" {
			playbackID = eventPlayback.String
		}
	}

	if playbackID == "" {
		middleware.ErrorResponse(w, http.StatusNotFound, "No stream scheduled")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PlaybackResponse{
		PlaybackID:  playbackID,
		PlaybackURL: muxvideo.PlaybackURL(playbackID),
	})
}
