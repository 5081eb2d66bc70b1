// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/danielhkuo/riot-network/auth"
	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/db"
	"github.com/danielhkuo/riot-network/jobs"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/muxvideo"
	"github.com/danielhkuo/riot-network/paypal"
	"github.com/danielhkuo/riot-network/realtime"
	"github.com/danielhkuo/riot-network/router"
	"github.com/danielhkuo/riot-network/supabase"
)

const (
	jobTimeout      = 2 * time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Apply schema migrations
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")
	if cfg.MigrateOnly {
		return
	}

	// Connect to PostgreSQL
	dbConn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// External services
	sb, err := supabase.New(supabase.Config{
		ProjectURL: cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		ServiceKey: cfg.SupabaseServiceKey,
		JWTSecret:  cfg.SupabaseJWTSecret,
	})
	if err != nil {
		slog.Error("supabase client setup failed", "error", err)
		os.Exit(1)
	}

	payments, err := paypal.New(paypal.Config{
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		Production:   cfg.IsProduction(),
		WebhookID:    cfg.PayPalWebhookID,
	})
	if err != nil {
		slog.Error("paypal client setup failed", "error", err)
		os.Exit(1)
	}
	if !payments.WebhookConfigured() {
		slog.Warn("PAYPAL_WEBHOOK_ID not set, webhooks will be confirmed against the orders API")
	}

	streams, err := muxvideo.New(muxvideo.Config{
		TokenID:     cfg.MuxTokenID,
		TokenSecret: cfg.MuxTokenSecret,
	})
	if err != nil {
		slog.Error("mux client setup failed", "error", err)
		os.Exit(1)
	}

	chatLimiter := middleware.NewRateLimiter(cfg.ChatRatePerSec, 3)
	loginLimiter := middleware.NewRateLimiter(0.2, 5)

	// Create router
	mux := router.NewRouter(dbConn, cfg, router.Deps{
		Sessions:     supabase.NewVerifier(sb),
		Authz:        auth.NewAuthorizer(dbConn, cfg.AdminEmails),
		Auth:         sb.Auth(),
		Payments:     payments,
		Streams:      streams,
		Storage:      sb.Storage(),
		ChatLimiter:  chatLimiter,
		LoginLimiter: loginLimiter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background jobs
	scheduler := jobs.NewScheduler(jobTimeout)
	type scheduled struct {
		spec string
		job  jobs.Job
	}
	schedule := []scheduled{
		{cfg.ReconcileSchedule, jobs.NewReconciler(dbConn, payments)},
		{cfg.StreamPollSchedule, jobs.NewStreamMonitor(dbConn, streams)},
		{"@every 10m", jobs.FuncJob{JobName: "limiter_cleanup", Fn: func(context.Context) error {
			chatLimiter.Cleanup()
			loginLimiter.Cleanup()
			return nil
		}}},
	}

	if cfg.SupabaseServiceKey != "" {
		notifier := jobs.NewVODNotifier(dbConn)
		schedule = append(schedule, scheduled{"@every 5m", notifier})

		go notifier.Listen(ctx, func(ctx context.Context) (jobs.Conn, error) {
			c, err := realtime.Dial(ctx, sb.RealtimeURL())
			if err != nil {
				return nil, err
			}
			return c, nil
		})
	} else {
		slog.Warn("SUPABASE_SERVICE_KEY not set, VOD notifications disabled")
	}

	for _, s := range schedule {
		if err := scheduler.Add(s.spec, s.job); err != nil {
			slog.Error("job setup failed", "error", err)
			os.Exit(1)
		}
	}
	scheduler.Start()

	// Create server
	server := http.Server{
		Handler:           router.Wrap(mux, cfg),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
		scheduler.Stop(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "env", cfg.Env)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("Server closed")
}
