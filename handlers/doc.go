// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Riot Network API.

# Handler Types

Each handler is a struct holding the database, config and whichever
external clients it needs:

  - EventHandler: Event listing and admin CRUD
  - MerchHandler: Merchandise listing, admin CRUD and catalog seeding
  - AccessHandler: Paywall checks and playback URLs
  - ProfileHandler: Coin balance and order history
  - ChatHandler: Chat history and posting
  - TriviaHandler: Questions, timed answers and coin rewards
  - VODHandler: Clip uploads, approval and listing
  - CheckoutHandler: PayPal order creation, capture and webhooks
  - AdminHandler: Dashboard, manual orders, cancellations, schema version
  - StreamHandler: Mux live stream provisioning
  - AuthHandler: Login and signup pass-through

External services are consumed through small interfaces (Payments,
LiveStreams, ObjectStore, AuthProvider, AccessChecker) so tests can swap in
fakes:

	checkout := handlers.NewCheckoutHandler(db, cfg, paypalClient, authorizer)

# Sessions

Handlers never parse tokens. middleware.WithSession puts the verified
user in the request context and routes that need one are wrapped with
middleware.RequireUser or middleware.RequireAdmin, so
middleware.UserFromContext is non-nil inside them.

# Checkout Flow

	POST /checkout/orders  → CreateOrder (price read from events.ppv_price)
	   buyer approves on PayPal
	POST /checkout/capture → CaptureOrder (COMPLETED when amounts match)
	POST /webhooks/paypal  → PayPalWebhook (late confirmations, refunds)

All order status changes go through orders.Store, which only allows forward
transitions. Repeated captures and redelivered webhooks are no-ops.

# Trivia Timing

GetQuestion returns an attempt token signed with TRIVIA_SECRET that
records when the question was first shown to the fan. The first showing is
stored in trivia_attempts, so fetching the question again returns the same
token and deadline. SubmitAnswer rejects tokens older than the answer
window with 410 Gone, and a question whose window ran out is no longer
offered.

# Concurrency

VOD approval is a conditional UPDATE (WHERE approved = false). When two
admins approve the same clip, exactly one gets 200 and the other 409.
*/
package handlers
