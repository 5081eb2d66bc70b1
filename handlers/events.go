// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
)

type EventHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewEventHandler(db *sql.DB, cfg cliparse.Config) *EventHandler {
	return &EventHandler{db: db, cfg: cfg}
}

// ListEvents handles GET /events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, title, date, ppv_price, ticket_price, is_active, playback_id FROM events`
	if r.URL.Query().Get("active") == "true" {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY date ASC`

	rows, err := h.db.QueryContext(r.Context(), query)
	if err != nil {
		slog.Error("failed to query events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	now := time.Now()
	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Date, &e.PPVPrice, &e.TicketPrice, &e.IsActive, &e.PlaybackID); err != nil {
			slog.Error("failed to scan event", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		e.StartsIn = humanize.RelTime(e.Date, now, "ago", "from now")
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, events)
}

// CreateEvent handles POST /admin/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := validateEvent(&req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	event := eventFromRequest(req)
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO events (title, date, ppv_price, ticket_price, is_active, playback_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, event.Title, event.Date, event.PPVPrice, event.TicketPrice, event.IsActive, event.PlaybackID).Scan(&event.ID)
	if err != nil {
		slog.Error("failed to insert event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	slog.Info("event created", "event_id", event.ID, "title", event.Title)
	middleware.JSONResponse(w, http.StatusCreated, event)
}

// UpdateEvent handles PUT /admin/events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.EventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := validateEvent(&req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	event := eventFromRequest(req)
	event.ID = eventID
	res, err := h.db.ExecContext(r.Context(), `
		UPDATE events
		SET title = $1, date = $2, ppv_price = $3, ticket_price = $4, is_active = $5, playback_id = $6
		WHERE id = $7
	`, event.Title, event.Date, event.PPVPrice, event.TicketPrice, event.IsActive, event.PlaybackID, eventID)
	if err != nil {
		slog.Error("failed to update event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update event")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	}

	slog.Info("event updated", "event_id", eventID)
	middleware.JSONResponse(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /admin/events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	res, err := h.db.ExecContext(r.Context(), "DELETE FROM events WHERE id = $1", eventID)
	if err != nil {
		slog.Error("failed to delete event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete event")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	}

	slog.Info("event deleted", "event_id", eventID)
	w.WriteHeader(http.StatusNoContent)
}

func validateEvent(req *models.EventRequest) string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if req.Date.IsZero() {
		return "date is required"
	}
	if req.PPVPrice < 0 || req.TicketPrice < 0 {
		return "prices must not be negative"
	}
	return ""
}

func eventFromRequest(req models.EventRequest) models.Event {
	event := models.Event{
		Title:       req.Title,
		Date:        req.Date,
		PPVPrice:    req.PPVPrice,
		TicketPrice: req.TicketPrice,
		IsActive:    true,
		PlaybackID:  req.PlaybackID,
	}
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}
	return event
}
