// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package paypal wraps the PayPal Orders v2 and webhook verification APIs.

	c, err := paypal.New(paypal.Config{
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		Production:   cfg.IsProduction(),
		WebhookID:    cfg.PayPalWebhookID,
	})

The sandbox API is used unless Production is set.

# Checkout Flow

	order, err := c.CreateOrder(ctx, 25.00, "USD", localOrderID)
	// buyer approves at order.ApproveURL()
	order, err = c.CaptureOrder(ctx, order.ID)
	cents, err := order.CapturedCents()

CreateOrder and CaptureOrder send a PayPal-Request-Id derived from their
argument, so a retried call never charges twice.

# Tokens

The OAuth client-credentials token is cached and refreshed 60 seconds
before it expires. A 401 from the API drops the cached token.

# Errors and Retries

Non-2xx answers become *APIError. 429 and 5xx are retried with exponential
backoff (three attempts by default); other 4xx return at once. Helpers:
IsNotFound, IsAlreadyCaptured, (*APIError).Temporary.

# Webhooks

	ok, err := c.VerifyWebhookSignature(ctx, r.Header, rawBody)

Requires Config.WebhookID.
*/
package paypal
