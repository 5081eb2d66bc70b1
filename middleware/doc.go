// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms).

# Sessions

WithSession resolves the Authorization bearer token with a SessionVerifier
and stores the user in the request context. It never rejects; the guards
do:

	session := middleware.WithSession(verifier)
	admin := middleware.RequireAdmin(authorizer)

	mux.HandleFunc("GET /profile", session(middleware.RequireUser(h.Get)))
	mux.HandleFunc("GET /admin/dashboard", session(admin(h.Dashboard)))

RequireUser answers 401 (or 502 when the auth provider is down).
RequireAdmin adds 403 for signed-in non-admins. Handlers read the user with
UserFromContext.

# Rate Limiting

RateLimiter keeps a token bucket per key:

	rl := middleware.NewRateLimiter(1, 3)
	if !rl.Allow(user.ID) { ... }
	mux.HandleFunc("POST /auth/login", rl.Limit(h.Login))

Limit keys by session user, else client IP, and answers 429.

# Metrics

	server := http.Server{
		Handler: middleware.CORS(cfg.CORSOrigins)(middleware.Instrument(mux)),
	}

Instrument records count and latency by route pattern.

# CORS Middleware

CORS takes the allowed front-end origins. Only those get Allow-Origin and
Allow-Credentials; preflights from anywhere else answer 403.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.CaptureRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Returns the RemoteAddr host. Used for rate limit keys and the
orders.ip_hash column. Behind a reverse proxy, wrap the server handler with
TrustProxy so RemoteAddr carries X-Real-IP or the last X-Forwarded-For hop.

# Upstream Errors

	middleware.UpstreamError(w, err, middleware.ServicePayments, "Order not found")

Maps provider client errors to 401, 404, 504 or 502.
*/
package middleware
