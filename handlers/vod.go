// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
)

const (
	ClipsBucket    = "clips"
	MaxUploadBytes = 500 << 20

	formMemory = 8 << 20
)

type VODHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	store ObjectStore
}

func NewVODHandler(db *sql.DB, cfg cliparse.Config, store ObjectStore) *VODHandler {
	return &VODHandler{db: db, cfg: cfg, store: store}
}

const vodColumns = `id, file_id, caption, is_live_edit, approved, published_at, notification_sent, submitted_by, video_url, thumbnail_url, created_at`

func scanVOD(rows *sql.Rows) (models.VODEdit, error) {
	var v models.VODEdit
	err := rows.Scan(&v.ID, &v.FileID, &v.Caption, &v.IsLiveEdit, &v.Approved, &v.PublishedAt,
		&v.NotificationSent, &v.SubmittedBy, &v.VideoURL, &v.ThumbnailURL, &v.CreatedAt)
	return v, err
}

// ListVOD handles GET /vod
func (h *VODHandler) ListVOD(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT `+vodColumns+`
		FROM vod_edits
		WHERE approved = true
		ORDER BY published_at DESC NULLS LAST
	`)
	if err != nil {
		slog.Error("failed to query vod", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	clips := []models.VODEdit{}
	for rows.Next() {
		v, err := scanVOD(rows)
		if err != nil {
			slog.Error("failed to scan vod", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		clips = append(clips, v)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate vod", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, clips)
}

// Upload handles POST /vod/uploads (multipart: file, caption)
func (h *VODHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	tooLarge := fmt.Sprintf("File must be %s or smaller", humanize.IBytes(MaxUploadBytes))

	// Leave room for the multipart framing and the caption field
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)
	// Parts past formMemory spill to temp files and are streamed from disk
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > MaxUploadBytes {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		middleware.ErrorResponse(w, http.StatusUnsupportedMediaType, "Only video files can be uploaded")
		return
	}

	objectPath := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), cleanFileName(header.Filename))
	if err := h.store.Upload(r.Context(), ClipsBucket, objectPath, contentType, file, header.Size); err != nil {
		middleware.UpstreamError(w, err, middleware.ServiceStorage, "Bucket not found")
		return
	}

	videoURL := h.store.PublicURL(ClipsBucket, objectPath)
	clip := models.VODEdit{
		FileID:      &objectPath,
		Caption:     strings.TrimSpace(r.FormValue("caption")),
		SubmittedBy: &user.ID,
		VideoURL:    &videoURL,
	}
	err = h.db.QueryRowContext(r.Context(), `
		INSERT INTO vod_edits (file_id, caption, is_live_edit, approved, submitted_by, video_url)
		VALUES ($1, $2, false, false, $3, $4)
		RETURNING id, created_at
	`, objectPath, clip.Caption, user.ID, videoURL).Scan(&clip.ID, &clip.CreatedAt)
	if err != nil {
		slog.Error("failed to insert vod edit", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save clip")
		return
	}

	slog.Info("vod uploaded", "vod_id", clip.ID, "user_id", user.ID, "size", humanize.Bytes(uint64(header.Size)))
	middleware.JSONResponse(w, http.StatusCreated, clip)
}

// ApproveVOD handles POST /admin/vod/{id}/approve. Only the first of two
// concurrent approvals updates the row; the other gets 409.
func (h *VODHandler) ApproveVOD(w http.ResponseWriter, r *http.Request) {
	vodID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	res, err := h.db.ExecContext(r.Context(), `
		UPDATE vod_edits
		SET approved = true, published_at = now()
		WHERE id = $1 AND approved = false
	`, vodID)
	if err != nil {
		slog.Error("failed to approve vod", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to approve clip")
		return
	}

	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		err := h.db.QueryRowContext(r.Context(),
			"SELECT EXISTS (SELECT 1 FROM vod_edits WHERE id = $1)", vodID).Scan(&exists)
		if err != nil {
			slog.Error("failed to query vod", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !exists {
			middleware.ErrorResponse(w, http.StatusNotFound, "Clip not found")
			return
		}
		middleware.ErrorResponse(w, http.StatusConflict, "Clip is already approved")
		return
	}

	slog.Info("vod approved", "vod_id", vodID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Clip approved"})
}

// DeleteVOD handles DELETE /admin/vod/{id}
func (h *VODHandler) DeleteVOD(w http.ResponseWriter, r *http.Request) {
	vodID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	res, err := h.db.ExecContext(r.Context(), "DELETE FROM vod_edits WHERE id = $1", vodID)
	if err != nil {
		slog.Error("failed to delete vod", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete clip")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Clip not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// cleanFileName keeps the base name and replaces characters that are awkward
// in object keys.
func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "clip"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
