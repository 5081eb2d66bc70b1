// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/db"
	"github.com/danielhkuo/riot-network/metrics"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/orders"
)

const (
	dashboardOrderLimit = 50
	dashboardLogLimit   = 20
	maxStreamLogLimit   = 200
)

type AdminHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	orders *orders.Store
}

func NewAdminHandler(db *sql.DB, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg, orders: orders.NewStore(db)}
}

// Dashboard handles GET /admin/dashboard. The three reads are independent
// and run concurrently.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var resp models.DashboardResponse

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		resp.Orders, err = h.orders.Recent(ctx, dashboardOrderLimit)
		return err
	})
	g.Go(func() error {
		var err error
		resp.PendingVOD, err = h.pendingVOD(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		resp.StreamLogs, err = recentStreamLogs(ctx, h.db, dashboardLogLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		slog.Error("failed to load dashboard", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

func (h *AdminHandler) pendingVOD(ctx context.Context) ([]models.VODEdit, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT `+vodColumns+`
		FROM vod_edits
		WHERE approved = false
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending vod: %w", err)
	}
	defer rows.Close()

	clips := []models.VODEdit{}
	for rows.Next() {
		v, err := scanVOD(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vod: %w", err)
		}
		clips = append(clips, v)
	}
	return clips, rows.Err()
}

// StoreOrder handles POST /store-order: a manual (comp) order granting access.
func (h *AdminHandler) StoreOrder(w http.ResponseWriter, r *http.Request) {
	var req models.StoreOrderRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if !strings.Contains(req.Email, "@") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if req.Amount < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "amount must not be negative")
		return
	}
	if req.EventID != nil {
		if _, err := uuid.Parse(*req.EventID); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid event_id")
			return
		}
	}

	order := models.Order{
		ID:        uuid.NewString(),
		Email:     req.Email,
		EventID:   req.EventID,
		Provider:  models.ProviderManual,
		Amount:    req.Amount,
		Currency:  defaultCurrency,
		Status:    models.OrderCompleted,
		CreatedAt: time.Now(),
	}

	// Link to an existing account when there is one
	var userID string
	err := h.db.QueryRowContext(r.Context(),
		"SELECT id FROM profiles WHERE lower(email) = lower($1) LIMIT 1", req.Email).Scan(&userID)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query profile", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if userID != "" {
		order.UserID = &userID
	}

	if err := h.orders.Insert(r.Context(), order); err != nil {
		slog.Error("failed to store order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store order")
		return
	}

	admin := middleware.UserFromContext(r.Context())
	metrics.OrderStatus(models.OrderCompleted, "admin")
	slog.Info("manual order stored", "order_id", order.ID, "email", order.Email, "by", admin.Email)

	middleware.JSONResponse(w, http.StatusCreated, order)
}

// CancelOrder handles POST /admin/orders/{id}/cancel
func (h *AdminHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	changed, err := h.orders.Cancel(r.Context(), orderID)
	if err != nil {
		slog.Error("failed to cancel order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cancel order")
		return
	}
	if !changed {
		_, err := h.orders.ByID(r.Context(), orderID)
		if errors.Is(err, orders.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Order not found")
			return
		}
		if err != nil {
			slog.Error("failed to query order", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		middleware.ErrorResponse(w, http.StatusConflict, "Order is already canceled")
		return
	}

	metrics.OrderStatus(models.OrderCanceled, "admin")
	slog.Info("order canceled", "order_id", orderID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Order canceled"})
}

// StreamLogs handles GET /admin/stream-logs
func (h *AdminHandler) StreamLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxStreamLogLimit)
	}

	logs, err := recentStreamLogs(r.Context(), h.db, limit)
	if err != nil {
		slog.Error("failed to query stream logs", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, logs)
}

// Schema handles GET /admin/schema
func (h *AdminHandler) Schema(w http.ResponseWriter, r *http.Request) {
	version, dirty, err := db.Version(r.Context(), h.db)
	if err != nil {
		slog.Error("failed to read schema version", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to read schema version")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SchemaResponse{Version: version, Dirty: dirty})
}

func recentStreamLogs(ctx context.Context, conn *sql.DB, limit int) ([]models.StreamLog, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT id, status, bitrate, notes, created_at
		FROM stream_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stream logs: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	logs := []models.StreamLog{}
	for rows.Next() {
		var l models.StreamLog
		if err := rows.Scan(&l.ID, &l.Status, &l.Bitrate, &l.Notes, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stream log: %w", err)
		}
		l.Ago = humanize.RelTime(l.CreatedAt, now, "ago", "from now")
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
