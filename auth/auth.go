// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token format")
	ErrTokenExpired = errors.New("answer window has closed")
	ErrTokenFuture  = errors.New("token issued in the future")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAttemptToken signs the moment a user was shown a trivia question.
// Format: <issued unix seconds>.<base64url HMAC of question|user|issued>
func GenerateAttemptToken(questionID, userID, secret string, issued time.Time) string {
	ts := strconv.FormatInt(issued.Unix(), 10)
	return ts + "." + attemptSignature(questionID, userID, ts, secret)
}

// ValidateAttemptToken checks the signature and that now is within window of
// the issue time. Returns the issue time on success.
func ValidateAttemptToken(token, questionID, userID, secret string, window time.Duration, now time.Time) (time.Time, error) {
	ts, sig, ok := strings.Cut(token, ".")
	if !ok || ts == "" || sig == "" {
		return time.Time{}, ErrInvalidToken
	}

	expected := attemptSignature(questionID, userID, ts, secret)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return time.Time{}, ErrInvalidToken
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, ErrInvalidToken
	}
	issued := time.Unix(unix, 0)

	// Allow a little clock skew between replicas
	if issued.After(now.Add(5 * time.Second)) {
		return time.Time{}, ErrTokenFuture
	}
	if now.Sub(issued) > window {
		return issued, ErrTokenExpired
	}

	return issued, nil
}

func attemptSignature(questionID, userID, ts, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(questionID + "|" + userID + "|" + ts))
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(h.Sum(nil)), "=")
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
