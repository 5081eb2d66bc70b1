// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/danielhkuo/riot-network/db"
	"github.com/danielhkuo/riot-network/metrics"
	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/muxvideo"
)

// StreamLister is satisfied by *muxvideo.Client
type StreamLister interface {
	ListLiveStreams(ctx context.Context) ([]muxvideo.LiveStream, error)
}

// StreamMonitor polls live stream status and writes a stream log row
// whenever a stream goes live or drops.
type StreamMonitor struct {
	db      *sql.DB
	streams StreamLister

	mu   sync.Mutex
	last map[string]string
}

func NewStreamMonitor(db *sql.DB, streams StreamLister) *StreamMonitor {
	return &StreamMonitor{db: db, streams: streams, last: make(map[string]string)}
}

func (m *StreamMonitor) Name() string { return "stream_monitor" }

func (m *StreamMonitor) Run(ctx context.Context) error {
	list, err := m.streams.ListLiveStreams(ctx)
	if err != nil {
		return fmt.Errorf("failed to list streams: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(list))
	for _, s := range list {
		seen[s.ID] = true

		prev, known := m.last[s.ID]
		m.last[s.ID] = s.Status
		// First sighting after startup only sets the baseline
		if !known || prev == s.Status {
			continue
		}

		status := models.StreamDisconnected
		if s.Status == muxvideo.StatusActive {
			status = models.StreamLive
		}
		notes := fmt.Sprintf("Stream %s is now %s", s.ID, s.Status)
		if err := db.InsertStreamLog(ctx, m.db, status, nil, notes); err != nil {
			// Retry on the next poll
			m.last[s.ID] = prev
			return err
		}
		metrics.StreamTransition(status)
		slog.Info("stream status changed", "stream_id", s.ID, "from", prev, "to", s.Status)
	}

	for id := range m.last {
		if !seen[id] {
			delete(m.last, id)
		}
	}
	return nil
}

// Tracked returns the number of streams with a known status
func (m *StreamMonitor) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.last)
}
