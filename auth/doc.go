// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth holds the server's authorization rules and HMAC token helpers.

Authentication itself is delegated to Supabase (see package supabase); this
package only decides what an already-authenticated user may do.

# Authorizer

All role and ownership checks go through one type:

	a := auth.NewAuthorizer(db, cfg.AdminEmails)
	isAdmin, err := a.IsAdmin(ctx, user.ID, user.Email)
	ok, err := a.HasAccess(ctx, user.ID, user.Email, eventID)

An admin is a user whose email is on the ADMIN_EMAILS allow-list or whose
profiles.role is 'admin'. Stream access requires a COMPLETED order matched
by user id or (case-insensitive) email; admins always have access. When an
event id is passed, the order must be for that event.

# Trivia Attempt Tokens

When a question is served, the server signs the question id, user id and
issue time:

	token := auth.GenerateAttemptToken(questionID, userID, secret, time.Now())
	issued, err := auth.ValidateAttemptToken(token, questionID, userID, secret, 30*time.Second, time.Now())

Answers arriving after the window fail with ErrTokenExpired. The token is
self-contained, so no per-attempt row is stored.

# ID Generation

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

Orders store a salted hash of the buyer's IP for fraud review:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
