// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/testutil"
)

const testEventID = "33333333-3333-3333-3333-333333333333"

var errTest = errors.New("test failure")

func TestHasAccess(t *testing.T) {
	tests := []struct {
		name      string
		anonymous bool
		access    *fakeAccess
		query     string
		want      models.AccessResponse
		wantCalls int
	}{
		{"anonymous", true, &fakeAccess{ok: true}, "", models.AccessResponse{}, 0},
		{"purchased", false, &fakeAccess{ok: true}, "", models.AccessResponse{Authed: true, HasAccess: true}, 1},
		{"not purchased", false, &fakeAccess{}, "?event_id=" + testEventID, models.AccessResponse{Authed: true}, 1},
		{"lookup error still 200", false, &fakeAccess{err: errors.New("db down")}, "", models.AccessResponse{Authed: true}, 1},
		{"malformed event id", false, &fakeAccess{ok: true}, "?event_id=nope", models.AccessResponse{Authed: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _ := testutil.NewMockDB(t)
			handler := NewAccessHandler(db, testutil.GetTestConfig(), tt.access)

			req := testutil.MakeRequest("GET", "/has-access"+tt.query, nil, nil)
			if !tt.anonymous {
				req = testutil.AsUser(req, testutil.Fan)
			}
			w := httptest.NewRecorder()
			handler.HasAccess(w, req)

			testutil.AssertStatus(t, w, http.StatusOK)
			var got models.AccessResponse
			testutil.AssertJSON(t, w, &got)
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
			if tt.access.calls != tt.wantCalls {
				t.Errorf("expected %d access checks, got %d", tt.wantCalls, tt.access.calls)
			}
		})
	}
}

func TestGetStream_NoAccess(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	handler := NewAccessHandler(db, testutil.GetTestConfig(), &fakeAccess{})

	req := testutil.AsUser(testutil.MakeRequest("GET", "/stream", nil, nil), testutil.Fan)
	w := httptest.NewRecorder()
	handler.GetStream(w, req)

	testutil.AssertStatus(t, w, http.StatusForbidden)
}

func TestGetStream_DefaultPlayback(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	handler := NewAccessHandler(db, testutil.GetTestConfig(), &fakeAccess{ok: true})

	req := testutil.AsUser(testutil.MakeRequest("GET", "/stream", nil, nil), testutil.Fan)
	w := httptest.NewRecorder()
	handler.GetStream(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.PlaybackResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.PlaybackID != "default-playback" {
		t.Errorf("expected default playback id, got %s", resp.PlaybackID)
	}
	if resp.PlaybackURL != "https://stream.mux.com/default-playback.m3u8" {
		t.Errorf("unexpected playback URL: %s", resp.PlaybackURL)
	}
}

func TestGetStream_EventPlayback(t *testing.T) {
	tests := []struct {
		name     string
		rows     *sqlmock.Rows
		status   int
		playback string
	}{
		{"event playback id", sqlmock.NewRows([]string{"playback_id"}).AddRow("event-playback"), http.StatusOK, "event-playback"},
		{"event without playback falls back", sqlmock.NewRows([]string{"playback_id"}).AddRow(nil), http.StatusOK, "default-playback"},
		{"event missing", sqlmock.NewRows([]string{"playback_id"}), http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := testutil.NewMockDB(t)
			mock.ExpectQuery("SELECT playback_id FROM events WHERE id").
				WithArgs(testEventID).
				WillReturnRows(tt.rows)

			handler := NewAccessHandler(db, testutil.GetTestConfig(), &fakeAccess{ok: true})
			req := testutil.AsUser(testutil.MakeRequest("GET", "/stream?event_id="+testEventID, nil, nil), testutil.Fan)
			w := httptest.NewRecorder()
			handler.GetStream(w, req)

			testutil.AssertStatus(t, w, tt.status)
			if tt.status != http.StatusOK {
				return
			}
			var resp models.PlaybackResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.PlaybackID != tt.playback {
				t.Errorf("expected playback %s, got %s", tt.playback, resp.PlaybackID)
			}
		})
	}
}

func TestGetStream_NothingScheduled(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	cfg := testutil.GetTestConfig()
	cfg.MuxPlaybackID = ""
	handler := NewAccessHandler(db, cfg, &fakeAccess{ok: true})

	req := testutil.AsUser(testutil.MakeRequest("GET", "/stream", nil, nil), testutil.Admin)
	w := httptest.NewRecorder()
	handler.GetStream(w, req)

	testutil.AssertStatus(t, w, http.StatusNotFound)
}
