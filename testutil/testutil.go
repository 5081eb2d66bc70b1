// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/supabase"
)

// Fixture users
var (
	Fan   = &supabase.User{ID: "11111111-1111-1111-1111-111111111111", Email: "fan@example.com"}
	Admin = &supabase.User{ID: "22222222-2222-2222-2222-222222222222", Email: "boss@example.com"}
)

// NewMockDB returns a sqlmock-backed database. Unmet expectations fail the
// test at cleanup.
func NewMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet database expectations: %v", err)
		}
		db.Close()
	})

	return db, mock
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:               3318,
		DatabaseURL:        "postgres://test",
		Env:                "development",
		SupabaseURL:        "https://project.supabase.co",
		SupabaseAnonKey:    "anon",
		PayPalClientID:     "pp-id",
		PayPalClientSecret: "pp-secret",
		MuxTokenID:         "mux-id",
		MuxTokenSecret:     "mux-secret",
		MuxPlaybackID:      "default-playback",
		AdminEmails:        []string{Admin.Email},
		CORSOrigins:        []string{"http://localhost:3000"},
		IPHashSalt:         "test-ip-salt",
		TriviaSecret:       "test-trivia-secret",
		TriviaAnswerWindow: 30 * time.Second,
		ChatRatePerSec:     1,
		ReconcileSchedule:  "@every 5m",
		StreamPollSchedule: "@every 1m",
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AsUser returns req carrying user as the session user
func AsUser(req *http.Request, user *supabase.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), user))
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
