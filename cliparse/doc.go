// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags loads .env with godotenv when the file exists, then returns a
Config:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p             Server port
	-d             Database URL
	-env           development or production
	-migrate-only  Apply migrations and exit
	-supabase-url  Supabase project URL
	-admin-emails  Comma separated admin emails
	-trust-proxy   Take client IPs from proxy headers

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	DATABASE_URL  → -d
	RIOT_ENV      → -env
	MIGRATE_ONLY  → -migrate-only
	SUPABASE_URL  → -supabase-url
	ADMIN_EMAILS  → -admin-emails
	TRUST_PROXY   → -trust-proxy

The remaining settings are environment only: SUPABASE_ANON_KEY,
SUPABASE_SERVICE_KEY, SUPABASE_JWT_SECRET, PAYPAL_CLIENT_ID,
PAYPAL_CLIENT_SECRET, PAYPAL_WEBHOOK_ID, MUX_TOKEN_ID, MUX_TOKEN_SECRET,
MUX_PLAYBACK_ID, TRIVIA_SECRET, IP_HASH_SALT,
CORS_ORIGINS (default http://localhost:3000), TRIVIA_ANSWER_WINDOW (default 30s),
CHAT_RATE_PER_SEC (default 1), RECONCILE_SCHEDULE (default @every 5m) and
STREAM_POLL_SCHEDULE (default @every 1m).

CLI flags take precedence over environment variables.

# Validation

DATABASE_URL is always required. Unless -migrate-only is set, ParseFlags
also requires the Supabase URL and anon key, both PayPal credentials, both
Mux tokens, TRIVIA_SECRET and IP_HASH_SALT. Admin emails are lowercased.
*/
package cliparse
