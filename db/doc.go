// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db ships the database schema as versioned migrations.

# Migrations

SQL files under migrations/ are embedded into the binary and applied with
golang-migrate:

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal(err)
	}

Files follow golang-migrate naming (000001_core_tables.up.sql and its
.down.sql). Migrate is safe to call on every start; an up-to-date database
returns nil. Never edit an applied file, add a new version instead.

Version reports what is applied:

	version, dirty, err := db.Version(ctx, conn)

A dirty flag means a migration failed halfway and needs a manual
`migrate force`.

# Tables

  - profiles: one row per BaaS auth user, role fan or admin
  - events: fight cards with PPV and ticket price, optional playback id
  - orders: payments; status CREATED, APPROVED, COMPLETED or CANCELED
  - merchandise: store catalog
  - chat_messages: live chat, 1-500 characters
  - trivia_questions, trivia_responses: one answer per user per question
  - coin_ledger: append-only coin grants; a balance is SUM(coins)
  - stream_logs: LIVE / DISCONNECTED history
  - vod_edits: fan-submitted clips awaiting approval

Migration 3 enables row level security so the browser client, which talks
to the database directly with the anon key, only reads what it should.

# Seed Data

The launch merchandise catalog lives in seed/merchandise.yaml:

	n, err := db.SeedMerchandise(ctx, conn)

Rows are inserted only when the table is empty.
*/
package db
