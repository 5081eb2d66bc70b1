// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/testutil"
)

const testVODID = "77777777-7777-7777-7777-777777777777"

func uploadRequest(t *testing.T, filename, contentType string, data []byte, caption string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/vod/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutil.AsUser(req, testutil.Fan)
}

func TestUpload(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	mock.ExpectQuery("INSERT INTO vod_edits").
		WithArgs(sqlmock.AnyArg(), "Crowd surf", testutil.Fan.ID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(testVODID, time.Now()))

	store := &fakeObjectStore{}
	handler := NewVODHandler(db, testutil.GetTestConfig(), store)
	w := httptest.NewRecorder()
	handler.Upload(w, uploadRequest(t, "my clip.mp4", "video/mp4", []byte("fake video"), " Crowd surf "))

	testutil.AssertStatus(t, w, http.StatusCreated)
	var clip models.VODEdit
	testutil.AssertJSON(t, w, &clip)
	if clip.Approved {
		t.Error("uploads must start unapproved")
	}
	if clip.FileID == nil || !strings.HasSuffix(*clip.FileID, "_my_clip.mp4") {
		t.Errorf("unexpected object path: %v", clip.FileID)
	}
	if len(store.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(store.uploads))
	}
	for key, data := range store.uploads {
		if !strings.HasPrefix(key, ClipsBucket+"/") {
			t.Errorf("expected upload in %s bucket, got %s", ClipsBucket, key)
		}
		if string(data) != "fake video" {
			t.Errorf("expected streamed file contents, got %q", data)
		}
	}
}

func TestUpload_LargeFileStreamsFromDisk(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	mock.ExpectQuery("INSERT INTO vod_edits").
		WithArgs(sqlmock.AnyArg(), "", testutil.Fan.ID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(testVODID, time.Now()))

	video := bytes.Repeat([]byte("v"), formMemory+1<<20)
	store := &fakeObjectStore{}
	handler := NewVODHandler(db, testutil.GetTestConfig(), store)
	w := httptest.NewRecorder()
	handler.Upload(w, uploadRequest(t, "encore.mp4", "video/mp4", video, ""))

	testutil.AssertStatus(t, w, http.StatusCreated)
	for _, data := range store.uploads {
		if len(data) != len(video) {
			t.Errorf("expected %d bytes stored, got %d", len(video), len(data))
		}
	}
}

func TestUpload_Rejected(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		status      int
	}{
		{"not a video", "notes.txt", "text/plain", http.StatusUnsupportedMediaType},
		{"missing file", "", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _ := testutil.NewMockDB(t)
			handler := NewVODHandler(db, testutil.GetTestConfig(), &fakeObjectStore{})
			w := httptest.NewRecorder()
			handler.Upload(w, uploadRequest(t, tt.filename, tt.contentType, []byte("data"), "caption"))
			testutil.AssertStatus(t, w, tt.status)
		})
	}
}

func TestUpload_StorageDown(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	handler := NewVODHandler(db, testutil.GetTestConfig(), &fakeObjectStore{err: errors.New("storage down")})
	w := httptest.NewRecorder()
	handler.Upload(w, uploadRequest(t, "clip.mov", "video/quicktime", []byte("data"), ""))

	testutil.AssertStatus(t, w, http.StatusBadGateway)
}

func TestListVOD(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	published := time.Now()
	mock.ExpectQuery("FROM vod_edits").
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_id", "caption", "is_live_edit", "approved", "published_at",
			"notification_sent", "submitted_by", "video_url", "thumbnail_url", "created_at"}).
			AddRow(testVODID, "1_clip.mp4", "Encore", false, true, published, true, testutil.Fan.ID, "https://cdn/clip.mp4", nil, published))

	handler := NewVODHandler(db, testutil.GetTestConfig(), &fakeObjectStore{})
	w := httptest.NewRecorder()
	handler.ListVOD(w, testutil.MakeRequest("GET", "/vod", nil, nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	var clips []models.VODEdit
	testutil.AssertJSON(t, w, &clips)
	if len(clips) != 1 || clips[0].Caption != "Encore" || clips[0].PublishedAt == nil {
		t.Errorf("unexpected clips: %+v", clips)
	}
}

func TestApproveVOD(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		exists   bool
		status   int
	}{
		{"approved", 1, true, http.StatusOK},
		{"lost the race", 0, true, http.StatusConflict},
		{"missing", 0, false, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := testutil.NewMockDB(t)
			mock.ExpectExec("UPDATE vod_edits").
				WithArgs(testVODID).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			if tt.affected == 0 {
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs(testVODID).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))
			}

			handler := NewVODHandler(db, testutil.GetTestConfig(), &fakeObjectStore{})
			req := testutil.MakeRequest("POST", "/admin/vod/"+testVODID+"/approve", nil, nil)
			req.SetPathValue("id", testVODID)
			w := httptest.NewRecorder()
			handler.ApproveVOD(w, req)

			testutil.AssertStatus(t, w, tt.status)
		})
	}
}

func TestCleanFileName(t *testing.T) {
	tests := map[string]string{
		"clip.mp4":             "clip.mp4",
		"my clip (1).mp4":      "my_clip__1_.mp4",
		"../../etc/passwd":     "passwd",
		`C:\Users\fan\vid.mov`: "vid.mov",
		"":                     "clip",
	}
	for in, want := range tests {
		if got := cleanFileName(in); got != want {
			t.Errorf("cleanFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
