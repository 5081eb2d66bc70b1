// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Riot Network API server.

Riot Network is the backend of a pay-per-view fight night fan site: fans
buy access to a live event with PayPal, watch the Mux stream, chat, answer
timed trivia for coins and browse approved clips. Admins run the event from
a back office.

# Starting the Server

The server reads a .env file when present, then environment variables and
CLI flags:

	DATABASE_URL=postgres://... go run .

Apply migrations only:

	go run . -migrate-only

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string
  - SUPABASE_URL, SUPABASE_ANON_KEY: auth, storage and realtime
  - PAYPAL_CLIENT_ID, PAYPAL_CLIENT_SECRET: checkout
  - MUX_TOKEN_ID, MUX_TOKEN_SECRET: live streams
  - TRIVIA_SECRET: signs trivia attempt tokens
  - IP_HASH_SALT: salts the client IP hash stored on orders

Optional settings:

  - CORS_ORIGINS: front-end origins allowed to call with credentials
  - TRUST_PROXY (-trust-proxy): take client IPs from X-Real-IP / X-Forwarded-For
  - PORT (-p): Server port (default: 3318)
  - RIOT_ENV (-env): "production" selects the live PayPal API
  - SUPABASE_SERVICE_KEY: storage uploads and VOD notifications
  - SUPABASE_JWT_SECRET: verify sessions locally instead of per request
  - PAYPAL_WEBHOOK_ID: verify webhook signatures
  - ADMIN_EMAILS: comma separated admins in addition to profiles.role

# Startup

main migrates the database, builds the provider clients, schedules the
background jobs, starts the realtime listener when a service key is set and
serves HTTP until SIGINT or SIGTERM. Shutdown drains in-flight requests and
running jobs.

# Architecture

  - handlers: HTTP request handlers
  - router: Route definitions and middleware composition
  - middleware: CORS, logging, sessions, rate limits, JSON helpers
  - orders: Order status transitions shared by checkout, webhooks and jobs
  - jobs: Reconciler, stream monitor and VOD notifier on a cron scheduler
  - supabase, paypal, muxvideo, realtime: provider clients
  - auth: Access and admin checks, attempt tokens
  - db: Embedded migrations and seed data
  - metrics: Prometheus collectors
  - models: Request/response types
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
