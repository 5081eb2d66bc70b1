// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package supabase is a small client for the parts of Supabase the server
uses: auth, storage and the realtime endpoint URL.

	c, err := supabase.New(supabase.Config{
		ProjectURL: cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		ServiceKey: cfg.SupabaseServiceKey,
		JWTSecret:  cfg.SupabaseJWTSecret,
	})

# Auth

	session, err := c.Auth().SignInWithPassword(ctx, email, password)
	session, err := c.Auth().SignUp(ctx, email, password)
	user, err := c.Auth().GetUser(ctx, accessToken)

# Sessions

Verifier checks bearer tokens. With a JWT secret it validates the HS256
signature and expiry locally; otherwise, or when local checks fail, it
asks /auth/v1/user. Rejected tokens return ErrInvalidSession; an
unreachable auth API returns a different error so callers can answer 502.

# Storage

	err := c.Storage().Upload(ctx, "clips", path, "video/mp4", data)
	url := c.Storage().PublicURL("clips", path)

Uploads require the service key.

# Errors

Every non-2xx answer becomes *Error with the HTTP status and the provider
message, whichever of message, msg, error_description or error was set.
*/
package supabase
