// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

var ErrWebhookNotConfigured = errors.New("paypal: webhook id not configured")

// Webhook event types the server acts on
const (
	EventCheckoutOrderApproved  = "CHECKOUT.ORDER.APPROVED"
	EventPaymentCaptureComplete = "PAYMENT.CAPTURE.COMPLETED"
	EventPaymentCaptureDenied   = "PAYMENT.CAPTURE.DENIED"
	EventPaymentCaptureRefunded = "PAYMENT.CAPTURE.REFUNDED"
	EventPaymentCaptureReversed = "PAYMENT.CAPTURE.REVERSED"
)

// WebhookConfigured reports whether signatures can be verified
func (c *Client) WebhookConfigured() bool {
	return c.config.WebhookID != ""
}

// VerifyWebhookSignature asks PayPal whether the transmission headers match
// the raw body.
func (c *Client) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) (bool, error) {
	if c.config.WebhookID == "" {
		return false, ErrWebhookNotConfigured
	}
	if !json.Valid(body) {
		return false, nil
	}

	req := map[string]any{
		"auth_algo":         headers.Get("PAYPAL-AUTH-ALGO"),
		"cert_url":          headers.Get("PAYPAL-CERT-URL"),
		"transmission_id":   headers.Get("PAYPAL-TRANSMISSION-ID"),
		"transmission_sig":  headers.Get("PAYPAL-TRANSMISSION-SIG"),
		"transmission_time": headers.Get("PAYPAL-TRANSMISSION-TIME"),
		"webhook_id":        c.config.WebhookID,
		"webhook_event":     json.RawMessage(body),
	}

	var resp struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", req, nil, &resp); err != nil {
		return false, err
	}

	return resp.VerificationStatus == "SUCCESS", nil
}
