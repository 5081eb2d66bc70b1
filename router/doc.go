// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Riot Network API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, router.Deps{...})

Deps carries the session verifier, authorizer and provider clients so
tests can swap in fakes.

# Endpoints

Public:

	GET  /health
	GET  /metrics
	GET  /events
	GET  /merch
	GET  /vod
	GET  /has-access
	POST /auth/login       - Rate limited per IP
	POST /auth/signup      - Rate limited per IP
	POST /webhooks/paypal

Session required:

	GET  /stream
	GET  /profile
	GET  /chat/messages
	POST /chat/messages
	GET  /trivia/question
	POST /trivia/questions/{id}/answer
	POST /vod/uploads
	POST /checkout/orders
	POST /checkout/capture

Admin:

	GET    /admin/dashboard
	GET    /admin/schema
	POST   /store-order
	POST   /admin/orders/{id}/cancel
	GET    /admin/stream-logs
	POST   /admin/events, PUT|DELETE /admin/events/{id}
	POST   /admin/merch, POST /admin/merch/seed, PUT|DELETE /admin/merch/{id}
	POST   /admin/trivia/questions, DELETE /admin/trivia/questions/{id}
	POST   /admin/vod/{id}/approve, DELETE /admin/vod/{id}
	GET    /admin/streams, POST /admin/streams, DELETE /admin/streams/{id}
	GET    /admin/streams/{id}/status
	POST   /admin/streams/{id}/activate

# Middleware

Every route is wrapped in WithLogging. Session routes add WithSession and
RequireUser; admin routes use RequireAdmin instead. CORS and request
metrics wrap the whole mux in main.
*/
package router
