// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/handlers"
	"github.com/danielhkuo/riot-network/metrics"
	"github.com/danielhkuo/riot-network/middleware"
)

// Authorizer is satisfied by *auth.Authorizer
type Authorizer interface {
	IsAdmin(ctx context.Context, userID, email string) (bool, error)
	HasAccess(ctx context.Context, userID, email, eventID string) (bool, error)
}

// Deps are the external services the routes depend on.
type Deps struct {
	Sessions middleware.SessionVerifier
	Authz    Authorizer
	Auth     handlers.AuthProvider
	Payments handlers.Payments
	Streams  handlers.LiveStreams
	Storage  handlers.ObjectStore

	// ChatLimiter throttles chat posts per user, LoginLimiter throttles
	// auth attempts per client IP.
	ChatLimiter  *middleware.RateLimiter
	LoginLimiter *middleware.RateLimiter
}

func NewRouter(db *sql.DB, cfg cliparse.Config, deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(db, cfg)
	merchHandler := handlers.NewMerchHandler(db, cfg)
	accessHandler := handlers.NewAccessHandler(db, cfg, deps.Authz)
	authHandler := handlers.NewAuthHandler(db, deps.Auth)
	profileHandler := handlers.NewProfileHandler(db)
	chatHandler := handlers.NewChatHandler(db, cfg, deps.ChatLimiter)
	triviaHandler := handlers.NewTriviaHandler(db, cfg)
	vodHandler := handlers.NewVODHandler(db, cfg, deps.Storage)
	checkoutHandler := handlers.NewCheckoutHandler(db, cfg, deps.Payments, deps.Authz)
	adminHandler := handlers.NewAdminHandler(db, cfg)
	streamHandler := handlers.NewStreamHandler(db, cfg, deps.Streams)

	session := middleware.WithSession(deps.Sessions)
	admin := middleware.RequireAdmin(deps.Authz)

	// user wraps a handler that needs a signed-in fan
	user := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(session(middleware.RequireUser(h)))
	}
	// adminOnly wraps a handler that needs an admin session
	adminOnly := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(session(admin(h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Public catalog
	mux.HandleFunc("GET /events", middleware.WithLogging(eventHandler.ListEvents))
	mux.HandleFunc("GET /merch", middleware.WithLogging(merchHandler.ListMerch))
	mux.HandleFunc("GET /vod", middleware.WithLogging(vodHandler.ListVOD))
	mux.HandleFunc("GET /has-access", middleware.WithLogging(session(accessHandler.HasAccess)))

	// Auth pass-through
	mux.HandleFunc("POST /auth/login", middleware.WithLogging(deps.LoginLimiter.Limit(authHandler.Login)))
	mux.HandleFunc("POST /auth/signup", middleware.WithLogging(deps.LoginLimiter.Limit(authHandler.Signup)))

	// Fan operations (session required)
	mux.HandleFunc("GET /stream", user(accessHandler.GetStream))
	mux.HandleFunc("GET /profile", user(profileHandler.GetProfile))
	mux.HandleFunc("GET /chat/messages", user(chatHandler.ListMessages))
	mux.HandleFunc("POST /chat/messages", user(chatHandler.PostMessage))
	mux.HandleFunc("GET /trivia/question", user(triviaHandler.GetQuestion))
	mux.HandleFunc("POST /trivia/questions/{id}/answer", user(triviaHandler.SubmitAnswer))
	mux.HandleFunc("POST /vod/uploads", user(vodHandler.Upload))

	// Checkout
	mux.HandleFunc("POST /checkout/orders", user(checkoutHandler.CreateOrder))
	mux.HandleFunc("POST /checkout/capture", user(checkoutHandler.CaptureOrder))
	mux.HandleFunc("POST /webhooks/paypal", middleware.WithLogging(checkoutHandler.PayPalWebhook))

	// Back office (admin only)
	mux.HandleFunc("GET /admin/dashboard", adminOnly(adminHandler.Dashboard))
	mux.HandleFunc("GET /admin/schema", adminOnly(adminHandler.Schema))
	mux.HandleFunc("POST /store-order", adminOnly(adminHandler.StoreOrder))
	mux.HandleFunc("POST /admin/orders/{id}/cancel", adminOnly(adminHandler.CancelOrder))
	mux.HandleFunc("GET /admin/stream-logs", adminOnly(adminHandler.StreamLogs))

	mux.HandleFunc("POST /admin/events", adminOnly(eventHandler.CreateEvent))
	mux.HandleFunc("PUT /admin/events/{id}", adminOnly(eventHandler.UpdateEvent))
	mux.HandleFunc("DELETE /admin/events/{id}", adminOnly(eventHandler.DeleteEvent))

	mux.HandleFunc("POST /admin/merch", adminOnly(merchHandler.CreateMerch))
	mux.HandleFunc("POST /admin/merch/seed", adminOnly(merchHandler.SeedMerch))
	mux.HandleFunc("PUT /admin/merch/{id}", adminOnly(merchHandler.UpdateMerch))
	mux.HandleFunc("DELETE /admin/merch/{id}", adminOnly(merchHandler.DeleteMerch))

	mux.HandleFunc("POST /admin/trivia/questions", adminOnly(triviaHandler.CreateQuestion))
	mux.HandleFunc("DELETE /admin/trivia/questions/{id}", adminOnly(triviaHandler.DeleteQuestion))

	mux.HandleFunc("POST /admin/vod/{id}/approve", adminOnly(vodHandler.ApproveVOD))
	mux.HandleFunc("DELETE /admin/vod/{id}", adminOnly(vodHandler.DeleteVOD))

	mux.HandleFunc("GET /admin/streams", adminOnly(streamHandler.ListStreams))
	mux.HandleFunc("POST /admin/streams", adminOnly(streamHandler.CreateStream))
	mux.HandleFunc("DELETE /admin/streams/{id}", adminOnly(streamHandler.DeleteStream))
	mux.HandleFunc("GET /admin/streams/{id}/status", adminOnly(streamHandler.StreamStatus))
	mux.HandleFunc("POST /admin/streams/{id}/activate", adminOnly(streamHandler.ActivateStream))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("riot-network API v1"))
	})

	return mux
}

// Wrap adds the server-wide layers around the routes. Proxy headers are
// honored only when cfg.TrustProxy is set.
func Wrap(mux http.Handler, cfg cliparse.Config) http.Handler {
	h := middleware.CORS(cfg.CORSOrigins)(middleware.Instrument(mux))
	if cfg.TrustProxy {
		h = middleware.TrustProxy(h)
	}
	return h
}
