// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/danielhkuo/riot-network/metrics"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/orders"
	"github.com/danielhkuo/riot-network/paypal"
)

const maxWebhookBytes = 1 << 20

// webhookTargets maps PayPal event types to the order status they imply
var webhookTargets = map[string]string{
	paypal.EventCheckoutOrderApproved:  models.OrderApproved,
	paypal.EventPaymentCaptureComplete: models.OrderCompleted,
	paypal.EventPaymentCaptureDenied:   models.OrderCanceled,
	paypal.EventPaymentCaptureRefunded: models.OrderCanceled,
	paypal.EventPaymentCaptureReversed: models.OrderCanceled,
}

type webhookReply struct {
	Status string `json:"status"`
}

// PayPalWebhook handles POST /webhooks/paypal. Completions are always
// confirmed against the Orders API before the row changes. Without a
// configured webhook id, cancellations cannot be trusted and are ignored.
func (h *CheckoutHandler) PayPalWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil || !gjson.ValidBytes(body) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid webhook body")
		return
	}

	eventType := gjson.GetBytes(body, "event_type").String()

	verified := false
	if h.payments.WebhookConfigured() {
		ok, err := h.payments.VerifyWebhookSignature(r.Context(), r.Header, body)
		if err != nil {
			// Non-2xx makes PayPal redeliver
			metrics.WebhookEvent(eventType, "error")
			middleware.UpstreamError(w, err, middleware.ServicePayments, "Webhook not recognized")
			return
		}
		if !ok {
			slog.Warn("webhook signature rejected", "event_type", eventType)
			metrics.WebhookEvent(eventType, "rejected")
			middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid signature")
			return
		}
		verified = true
	}

	target, known := webhookTargets[eventType]
	if !known {
		metrics.WebhookEvent(eventType, "ignored")
		middleware.JSONResponse(w, http.StatusOK, webhookReply{Status: "ignored"})
		return
	}

	row, err := h.webhookOrder(r, eventType, body)
	if errors.Is(err, orders.ErrNotFound) {
		slog.Warn("webhook for unknown order", "event_type", eventType)
		metrics.WebhookEvent(eventType, "ignored")
		middleware.JSONResponse(w, http.StatusOK, webhookReply{Status: "ignored"})
		return
	}
	if err != nil {
		slog.Error("failed to resolve webhook order", "error", err, "event_type", eventType)
		metrics.WebhookEvent(eventType, "error")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	providerID := *row.ProviderOrderID

	var outcome orders.Outcome
	switch {
	case target == models.OrderCompleted || !verified:
		if target == models.OrderCanceled {
			slog.Warn("ignoring unverified cancellation", "event_type", eventType, "provider_order_id", providerID)
			metrics.WebhookEvent(eventType, "unverified")
			middleware.JSONResponse(w, http.StatusOK, webhookReply{Status: "ignored"})
			return
		}
		po, err := h.payments.GetOrder(r.Context(), providerID)
		if err != nil {
			metrics.WebhookEvent(eventType, "error")
			middleware.UpstreamError(w, err, middleware.ServicePayments, "Order not found")
			return
		}
		outcome, err = h.orders.Apply(r.Context(), row, po)
		if err != nil {
			slog.Error("failed to apply webhook", "error", err, "provider_order_id", providerID)
			metrics.WebhookEvent(eventType, "error")
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

	default:
		changed, err := h.orders.Transition(r.Context(), providerID, target)
		if err != nil {
			slog.Error("failed to apply webhook", "error", err, "provider_order_id", providerID)
			metrics.WebhookEvent(eventType, "error")
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		outcome = orders.OutcomeUnchanged
		if changed {
			outcome = orders.Outcome(strings.ToLower(target))
		}
	}

	if outcome == orders.OutcomeCompleted || outcome == orders.OutcomeCanceled {
		metrics.OrderStatus(strings.ToUpper(string(outcome)), "webhook")
	}
	metrics.WebhookEvent(eventType, string(outcome))
	slog.Info("webhook applied", "event_type", eventType, "provider_order_id", providerID, "outcome", outcome)
	middleware.JSONResponse(w, http.StatusOK, webhookReply{Status: string(outcome)})
}

// webhookOrder finds our order for an event. Order events carry the order
// id as the resource id; capture and refund events carry it under
// supplementary_data, with our own id in custom_id as a fallback.
func (h *CheckoutHandler) webhookOrder(r *http.Request, eventType string, body []byte) (*models.Order, error) {
	resource := gjson.GetBytes(body, "resource")

	providerID := resource.Get("supplementary_data.related_ids.order_id").String()
	if strings.HasPrefix(eventType, "CHECKOUT.ORDER.") {
		providerID = resource.Get("id").String()
	}

	if providerID != "" {
		return h.orders.ByProviderID(r.Context(), providerID)
	}

	localID := resource.Get("custom_id").String()
	if _, err := uuid.Parse(localID); err != nil {
		return nil, orders.ErrNotFound
	}
	row, err := h.orders.ByID(r.Context(), localID)
	if err != nil {
		return nil, err
	}
	if row.ProviderOrderID == nil {
		return nil, orders.ErrNotFound
	}
	return row, nil
}
