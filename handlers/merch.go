// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/db"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
)

type MerchHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewMerchHandler(db *sql.DB, cfg cliparse.Config) *MerchHandler {
	return &MerchHandler{db: db, cfg: cfg}
}

// ListMerch handles GET /merch
func (h *MerchHandler) ListMerch(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, name, description, price, stock, is_active, image_url
		FROM merchandise
		WHERE is_active = true
		ORDER BY name ASC
	`)
	if err != nil {
		slog.Error("failed to query merchandise", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	items := []models.Merchandise{}
	for rows.Next() {
		var m models.Merchandise
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Stock, &m.IsActive, &m.ImageURL); err != nil {
			slog.Error("failed to scan merchandise", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate merchandise", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, items)
}

// CreateMerch handles POST /admin/merch
func (h *MerchHandler) CreateMerch(w http.ResponseWriter, r *http.Request) {
	var req models.MerchRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := validateMerch(&req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	item := merchFromRequest(req)
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO merchandise (name, description, price, stock, is_active, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, item.Name, item.Description, item.Price, item.Stock, item.IsActive, item.ImageURL).Scan(&item.ID)
	if err != nil {
		slog.Error("failed to insert merchandise", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create item")
		return
	}

	slog.Info("merchandise created", "merch_id", item.ID, "name", item.Name)
	middleware.JSONResponse(w, http.StatusCreated, item)
}

// UpdateMerch handles PUT /admin/merch/{id}
func (h *MerchHandler) UpdateMerch(w http.ResponseWriter, r *http.Request) {
	merchID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.MerchRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := validateMerch(&req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	item := merchFromRequest(req)
	item.ID = merchID
	res, err := h.db.ExecContext(r.Context(), `
		UPDATE merchandise
		SET name = $1, description = $2, price = $3, stock = $4, is_active = $5, image_url = $6
		WHERE id = $7
	`, item.Name, item.Description, item.Price, item.Stock, item.IsActive, item.ImageURL, merchID)
	if err != nil {
		slog.Error("failed to update merchandise", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update item")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Item not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, item)
}

// DeleteMerch handles DELETE /admin/merch/{id}
func (h *MerchHandler) DeleteMerch(w http.ResponseWriter, r *http.Request) {
	merchID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	res, err := h.db.ExecContext(r.Context(), "DELETE FROM merchandise WHERE id = $1", merchID)
	if err != nil {
		slog.Error("failed to delete merchandise", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete item")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Item not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SeedMerch handles POST /admin/merch/seed
func (h *MerchHandler) SeedMerch(w http.ResponseWriter, r *http.Request) {
	count, err := db.SeedMerchandise(r.Context(), h.db)
	if err != nil {
		slog.Error("failed to seed merchandise", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to seed merchandise")
		return
	}

	if count == 0 {
		middleware.JSONResponse(w, http.StatusOK, models.SeedResponse{
			Message: "Merchandise already present",
			Count:   0,
		})
		return
	}

	slog.Info("merchandise seeded", "count", count)
	middleware.JSONResponse(w, http.StatusCreated, models.SeedResponse{
		Message: "Merchandise seeded",
		Count:   count,
	})
}

func validateMerch(req *models.MerchRequest) string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.Price < 0 {
		return "price must not be negative"
	}
	if req.Stock != nil && *req.Stock < 0 {
		return "stock must not be negative"
	}
	return ""
}

func merchFromRequest(req models.MerchRequest) models.Merchandise {
	item := models.Merchandise{
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		IsActive: true,
	}
	if req.Description != "" {
		item.Description = &req.Description
	}
	if req.ImageURL != "" {
		item.ImageURL = &req.ImageURL
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	return item
}
