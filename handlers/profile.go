// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/orders"
)

type ProfileHandler struct {
	db     *sql.DB
	orders *orders.Store
}

func NewProfileHandler(db *sql.DB) *ProfileHandler {
	return &ProfileHandler{db: db, orders: orders.NewStore(db)}
}

// GetProfile handles GET /profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var coins int
	err := h.db.QueryRowContext(r.Context(),
		"SELECT COALESCE(SUM(coins), 0) FROM coin_ledger WHERE user_id::text = $1", user.ID).Scan(&coins)
	if err != nil {
		slog.Error("failed to sum coins", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	userOrders, err := h.orders.ForUser(r.Context(), user.ID, user.Email)
	if err != nil {
		slog.Error("failed to list orders", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ProfileResponse{
		UserID: user.ID,
		Email:  user.Email,
		Coins:  coins,
		Orders: userOrders,
	})
}
