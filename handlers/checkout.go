// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/riot-network/auth"
	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/metrics"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/orders"
	"github.com/danielhkuo/riot-network/paypal"
	"github.com/danielhkuo/riot-network/supabase"
)

const defaultCurrency = "USD"

type CheckoutHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	orders   *orders.Store
	payments Payments
	authz    AccessChecker
}

func NewCheckoutHandler(db *sql.DB, cfg cliparse.Config, payments Payments, authz AccessChecker) *CheckoutHandler {
	return &CheckoutHandler{
		db:       db,
		cfg:      cfg,
		orders:   orders.NewStore(db),
		payments: payments,
		authz:    authz,
	}
}

// CreateOrder handles POST /checkout/orders. The price always comes from
// the event row.
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req models.CreateCheckoutRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event_id is required")
		return
	}

	var title string
	var price float64
	var active bool
	err = h.db.QueryRowContext(r.Context(),
		"SELECT title, ppv_price, is_active FROM events WHERE id = $1",
		eventID.String()).Scan(&title, &price, &active)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		slog.Error("failed to query event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !active || price <= 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not on sale")
		return
	}

	owned, err := h.authz.HasAccess(r.Context(), user.ID, user.Email, eventID.String())
	if err != nil {
		slog.Error("failed to check access", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to check access")
		return
	}
	if owned {
		middleware.ErrorResponse(w, http.StatusConflict, "You already have access to this event")
		return
	}

	localID := uuid.NewString()
	po, err := h.payments.CreateOrder(r.Context(), price, defaultCurrency, localID)
	if err != nil {
		middleware.UpstreamError(w, err, middleware.ServicePayments, "Payment provider rejected the order")
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.IPHashSalt)
	userID := user.ID
	eventStr := eventID.String()
	row := models.Order{
		ID:              localID,
		UserID:          &userID,
		Email:           user.Email,
		EventID:         &eventStr,
		Provider:        models.ProviderPayPal,
		ProviderOrderID: &po.ID,
		Amount:          price,
		Currency:        defaultCurrency,
		Status:          models.OrderCreated,
		IPHash:          &ipHash,
	}
	if err := h.orders.Insert(r.Context(), row); err != nil {
		slog.Error("failed to record order", "error", err, "provider_order_id", po.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	metrics.OrderStatus(models.OrderCreated, "checkout")
	slog.Info("checkout started", "order_id", localID, "provider_order_id", po.ID, "event", title)

	middleware.JSONResponse(w, http.StatusCreated, models.CheckoutResponse{
		OrderID:         localID,
		ProviderOrderID: po.ID,
		Amount:          price,
		Currency:        defaultCurrency,
		Status:          models.OrderCreated,
		ApproveURL:      po.ApproveURL(),
	})
}

// CaptureOrder handles POST /checkout/capture with the provider order id the
// buyer approved. A failed capture leaves the row for the reconciler.
func (h *CheckoutHandler) CaptureOrder(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req models.CaptureRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "order_id is required")
		return
	}

	row, err := h.orders.ByProviderID(r.Context(), req.OrderID)
	if errors.Is(err, orders.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		slog.Error("failed to query order", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !ownsOrder(row, user) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Order belongs to another account")
		return
	}

	switch row.Status {
	case models.OrderCompleted:
		middleware.JSONResponse(w, http.StatusOK, models.CaptureResponse{
			Success: true,
			OrderID: req.OrderID,
			Status:  models.OrderCompleted,
			Message: "Order already captured",
		})
		return
	case models.OrderCanceled:
		middleware.ErrorResponse(w, http.StatusConflict, "Order was canceled")
		return
	}

	po, err := h.payments.CaptureOrder(r.Context(), req.OrderID)
	if paypal.IsAlreadyCaptured(err) {
		po, err = h.payments.GetOrder(r.Context(), req.OrderID)
	}
	if err != nil {
		slog.Error("failed to capture paypal order", "error", err, "provider_order_id", req.OrderID)
		middleware.JSONResponse(w, http.StatusBadGateway, models.CaptureResponse{
			OrderID: req.OrderID,
			Status:  row.Status,
			Message: "Payment could not be confirmed yet. It will be checked again automatically.",
		})
		return
	}

	outcome, err := h.orders.Apply(r.Context(), row, po)
	if err != nil {
		slog.Error("failed to record capture", "error", err, "provider_order_id", req.OrderID)
		middleware.JSONResponse(w, http.StatusInternalServerError, models.CaptureResponse{
			OrderID: req.OrderID,
			Status:  row.Status,
			Message: "Payment received but not yet recorded. It will be checked again automatically.",
		})
		return
	}

	switch outcome {
	case orders.OutcomeCompleted:
		metrics.OrderStatus(models.OrderCompleted, "capture")
		slog.Info("order captured", "order_id", row.ID, "provider_order_id", req.OrderID)
		middleware.JSONResponse(w, http.StatusOK, models.CaptureResponse{
			Success: true,
			OrderID: req.OrderID,
			Status:  models.OrderCompleted,
		})
	case orders.OutcomeUnchanged:
		h.reportCurrent(w, r, req.OrderID, row.Status)
	case orders.OutcomeAmountMismatch:
		middleware.JSONResponse(w, http.StatusConflict, models.CaptureResponse{
			OrderID: req.OrderID,
			Status:  row.Status,
			Message: "Captured amount does not match the order. Support will review it.",
		})
	case orders.OutcomeCanceled:
		metrics.OrderStatus(models.OrderCanceled, "capture")
		middleware.JSONResponse(w, http.StatusConflict, models.CaptureResponse{
			OrderID: req.OrderID,
			Status:  models.OrderCanceled,
			Message: "Payment was voided",
		})
	default:
		middleware.JSONResponse(w, http.StatusPaymentRequired, models.CaptureResponse{
			OrderID: req.OrderID,
			Status:  po.Status,
			Message: "Payment not completed",
		})
	}
}

// reportCurrent answers from the stored row after a transition matched
// nothing. Another writer got there first; its status is the truth.
func (h *CheckoutHandler) reportCurrent(w http.ResponseWriter, r *http.Request, providerID, seen string) {
	current, err := h.orders.ByProviderID(r.Context(), providerID)
	if err != nil {
		slog.Error("failed to re-read order", "error", err, "provider_order_id", providerID)
		middleware.JSONResponse(w, http.StatusInternalServerError, models.CaptureResponse{
			OrderID: providerID,
			Status:  seen,
			Message: "Payment received but not yet recorded. It will be checked again automatically.",
		})
		return
	}

	switch current.Status {
	case models.OrderCompleted:
		middleware.JSONResponse(w, http.StatusOK, models.CaptureResponse{
			Success: true,
			OrderID: providerID,
			Status:  models.OrderCompleted,
			Message: "Order already captured",
		})
	case models.OrderCanceled:
		middleware.JSONResponse(w, http.StatusConflict, models.CaptureResponse{
			OrderID: providerID,
			Status:  models.OrderCanceled,
			Message: "Order was canceled",
		})
	default:
		middleware.JSONResponse(w, http.StatusPaymentRequired, models.CaptureResponse{
			OrderID: providerID,
			Status:  current.Status,
			Message: "Payment not completed",
		})
	}
}

func ownsOrder(o *models.Order, user *supabase.User) bool {
	if o.UserID != nil && *o.UserID == user.ID {
		return true
	}
	return user.Email != "" && strings.EqualFold(o.Email, user.Email)
}
