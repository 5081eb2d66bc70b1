// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateID() error = %v", err)
			}
			if len(id) != tt.wantLen {
				t.Errorf("GenerateID() length = %d, want %d", len(id), tt.wantLen)
			}
			for _, c := range id {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("GenerateID() contains invalid hex char: %c", c)
				}
			}
		})
	}

	id1, _ := GenerateID(16)
	id2, _ := GenerateID(16)
	if id1 == id2 {
		t.Error("GenerateID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestAttemptToken(t *testing.T) {
	const secret = "trivia-secret"
	issued := time.Unix(1_700_000_000, 0)
	window := 30 * time.Second

	token := GenerateAttemptToken("q1", "u1", secret, issued)
	if !strings.HasPrefix(token, "1700000000.") {
		t.Fatalf("token should start with issue time, got %s", token)
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token should be URL-safe, got %s", token)
	}

	tests := []struct {
		name       string
		token      string
		questionID string
		userID     string
		secret     string
		now        time.Time
		wantErr    error
	}{
		{"valid", token, "q1", "u1", secret, issued.Add(10 * time.Second), nil},
		{"exactly at deadline", token, "q1", "u1", secret, issued.Add(window), nil},
		{"expired", token, "q1", "u1", secret, issued.Add(31 * time.Second), ErrTokenExpired},
		{"other question", token, "q2", "u1", secret, issued, ErrInvalidToken},
		{"other user", token, "q1", "u2", secret, issued, ErrInvalidToken},
		{"wrong secret", token, "q1", "u1", "nope", issued, ErrInvalidToken},
		{"no separator", "garbage", "q1", "u1", secret, issued, ErrInvalidToken},
		{"empty", "", "q1", "u1", secret, issued, ErrInvalidToken},
		{"future", token, "q1", "u1", secret, issued.Add(-time.Minute), ErrTokenFuture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAttemptToken(tt.token, tt.questionID, tt.userID, tt.secret, window, tt.now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAttemptToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAttemptToken_TamperedTimestamp(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	token := GenerateAttemptToken("q1", "u1", "s", issued)

	// Pushing the timestamp forward must break the signature
	_, sig, _ := strings.Cut(token, ".")
	forged := "1700000100." + sig

	if _, err := ValidateAttemptToken(forged, "q1", "u1", "s", 30*time.Second, issued.Add(110*time.Second)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for forged timestamp, got %v", err)
	}
}

func TestHashIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		salt string
	}{
		{"ipv4", "192.168.1.1", "salt"},
		{"ipv6", "2001:db8::1", "salt"},
		{"localhost", "127.0.0.1", "different-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := HashIP(tt.ip, tt.salt)

			if len(hash) != 16 {
				t.Errorf("HashIP() length = %d, want 16", len(hash))
			}
			if hash != HashIP(tt.ip, tt.salt) {
				t.Error("HashIP() is not deterministic")
			}
			if hash == HashIP(tt.ip, tt.salt+"x") {
				t.Error("HashIP() produced same hash for different salts")
			}
			if strings.Contains(hash, tt.ip) {
				t.Error("HashIP() leaked the raw IP")
			}
		})
	}
}
