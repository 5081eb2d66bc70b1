// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("invalid session token")

// Verifier turns a bearer token into a User.
type Verifier struct {
	auth      *AuthClient
	jwtSecret []byte
}

// NewVerifier verifies locally when the client was configured with a JWT
// secret, and asks the auth API otherwise.
func NewVerifier(c *Client) *Verifier {
	v := &Verifier{auth: c.Auth()}
	if c.config.JWTSecret != "" {
		v.jwtSecret = []byte(c.config.JWTSecret)
	}
	return v
}

// Verify returns ErrInvalidSession (possibly wrapped) for bad tokens.
func (v *Verifier) Verify(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	if v.jwtSecret != nil {
		user, err := v.verifyLocal(token)
		if err == nil {
			return user, nil
		}
		slog.Debug("local token verification failed, asking auth API", "error", err)
	}

	user, err := v.auth.GetUser(ctx, token)
	if err != nil {
		if IsAuthError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
		}
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrInvalidSession
	}

	return user, nil
}

func (v *Verifier) verifyLocal(token string) (*User, error) {
	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("jwt invalid")
	}

	user := &User{
		ID:           getStringClaim(claims, "sub"),
		Email:        getStringClaim(claims, "email"),
		Role:         getStringClaim(claims, "role"),
		Aud:          getStringClaim(claims, "aud"),
		AppMetadata:  getMapClaim(claims, "app_metadata"),
		UserMetadata: getMapClaim(claims, "user_metadata"),
	}
	if user.ID == "" {
		return nil, errors.New("jwt has no subject")
	}

	return user, nil
}

func getStringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func getMapClaim(claims jwt.MapClaims, key string) map[string]any {
	if v, ok := claims[key].(map[string]any); ok {
		return v
	}
	return nil
}
