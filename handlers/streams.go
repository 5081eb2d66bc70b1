// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/riot-network/cliparse"
	"github.com/danielhkuo/riot-network/db"
	"github.com/danielhkuo/riot-network/metrics"
	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/muxvideo"
)

// Nominal ingest bitrate recorded when an admin activates a stream
const activateBitrate = 2500

type StreamHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	streams LiveStreams
}

func NewStreamHandler(db *sql.DB, cfg cliparse.Config, streams LiveStreams) *StreamHandler {
	return &StreamHandler{db: db, cfg: cfg, streams: streams}
}

// ListStreams handles GET /admin/streams
func (h *StreamHandler) ListStreams(w http.ResponseWriter, r *http.Request) {
	streams, err := h.streams.ListLiveStreams(r.Context())
	if err != nil {
		middleware.UpstreamError(w, err, middleware.ServiceVideo, "No streams found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, streams)
}

// CreateStream handles POST /admin/streams. The body is optional.
func (h *StreamHandler) CreateStream(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStreamRequest
	if r.ContentLength > 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}
	if req.ReconnectWindow < 0 || req.MaxContinuousSec < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "durations must not be negative")
		return
	}

	stream, err := h.streams.CreateLiveStream(r.Context(), muxvideo.CreateOptions{
		ReconnectWindow:  req.ReconnectWindow,
		LatencyMode:      req.LatencyMode,
		Passthrough:      req.Passthrough,
		MaxContinuousSec: req.MaxContinuousSec,
		Test:             !h.cfg.IsProduction(),
	})
	if err != nil {
		middleware.UpstreamError(w, err, middleware.ServiceVideo, "Stream not found")
		return
	}

	h.logStream(r, models.StreamDisconnected, nil, "Created stream: "+stream.ID)
	slog.Info("live stream created", "stream_id", stream.ID)
	middleware.JSONResponse(w, http.StatusCreated, stream)
}

// DeleteStream handles DELETE /admin/streams/{id}
func (h *StreamHandler) DeleteStream(w http.ResponseWriter, r *http.Request) {
	streamID := r.PathValue("id")
	if streamID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "stream id is required")
		return
	}

	if err := h.streams.DeleteLiveStream(r.Context(), streamID); err != nil {
		middleware.UpstreamError(w, err, middleware.ServiceVideo, "Stream not found")
		return
	}

	h.logStream(r, models.StreamDisconnected, nil, "Deleted stream: "+streamID)
	slog.Info("live stream deleted", "stream_id", streamID)
	w.WriteHeader(http.StatusNoContent)
}

// StreamStatus handles GET /admin/streams/{id}/status
func (h *StreamHandler) StreamStatus(w http.ResponseWriter, r *http.Request) {
	stream, ok := h.fetch(w, r)
	if !ok {
		return
	}

	logStatus := models.StreamDisconnected
	if stream.Status == muxvideo.StatusActive {
		logStatus = models.StreamLive
	}
	h.logStream(r, logStatus, nil, fmt.Sprintf("Stream %s status: %s", stream.ID, stream.Status))

	middleware.JSONResponse(w, http.StatusOK, models.StreamStatusResponse{
		StreamID:  stream.ID,
		Status:    stream.Status,
		LogStatus: logStatus,
	})
}

// ActivateStream handles POST /admin/streams/{id}/activate. It hands the
// encoder settings to the admin; the stream goes live once the encoder
// connects.
func (h *StreamHandler) ActivateStream(w http.ResponseWriter, r *http.Request) {
	stream, ok := h.fetch(w, r)
	if !ok {
		return
	}

	bitrate := activateBitrate
	h.logStream(r, models.StreamLive, &bitrate, fmt.Sprintf("Stream %s activated via admin dashboard", stream.ID))
	metrics.StreamTransition(models.StreamLive)

	middleware.JSONResponse(w, http.StatusOK, models.ActivateStreamResponse{
		StreamID:   stream.ID,
		StreamKey:  stream.StreamKey,
		PlaybackID: stream.PublicPlaybackID(),
		RTMPURL:    muxvideo.RTMPURL(stream.StreamKey),
		Status:     stream.Status,
	})
}

func (h *StreamHandler) fetch(w http.ResponseWriter, r *http.Request) (*muxvideo.LiveStream, bool) {
	streamID := r.PathValue("id")
	if streamID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "stream id is required")
		return nil, false
	}

	stream, err := h.streams.GetLiveStream(r.Context(), streamID)
	if err != nil {
		middleware.UpstreamError(w, err, middleware.ServiceVideo, "Stream not found")
		return nil, false
	}
	return stream, true
}

// logStream records a stream log row. The provider call already happened,
// so a failed log write is reported but does not fail the request.
func (h *StreamHandler) logStream(r *http.Request, status string, bitrate *int, notes string) {
	if err := db.InsertStreamLog(r.Context(), h.db, status, bitrate, notes); err != nil {
		slog.Error("failed to write stream log", "error", err, "status", status)
	}
}
