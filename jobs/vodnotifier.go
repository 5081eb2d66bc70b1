// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/riot-network/metrics"
	"github.com/danielhkuo/riot-network/realtime"
)

const (
	vodEditsTopic   = "vod_edits"
	vodUpdatesTopic = "vod_updates"
	newVODEvent     = "new_vod"

	minBackoff = time.Second
	maxBackoff = time.Minute

	// A connection must last this long before a drop resets the backoff
	stableAfter = 30 * time.Second
)

var ErrNotConnected = errors.New("realtime not connected")

// Conn is satisfied by *realtime.Client
type Conn interface {
	Subscribe(ctx context.Context, topic string, changes realtime.PostgresChanges, handler realtime.ChangeHandler) error
	Broadcast(ctx context.Context, topic, event string, payload any) error
	Done() <-chan struct{}
	Err() error
	Close() error
}

// Dialer opens a new realtime connection
type Dialer func(ctx context.Context) (Conn, error)

// NewVOD is the broadcast payload for a freshly approved clip
type NewVOD struct {
	ID       string  `json:"id"`
	Caption  string  `json:"caption"`
	VideoURL *string `json:"video_url,omitempty"`
}

// VODNotifier announces approved clips to connected fans exactly once.
// Row updates arrive over realtime; Run as a Job sweeps up anything the
// subscription missed while disconnected.
type VODNotifier struct {
	db    *sql.DB
	queue chan string

	mu   sync.RWMutex
	conn Conn

	minBackoff, maxBackoff, stableAfter time.Duration
}

func NewVODNotifier(db *sql.DB) *VODNotifier {
	return &VODNotifier{
		db:          db,
		queue:       make(chan string, 64),
		minBackoff:  minBackoff,
		maxBackoff:  maxBackoff,
		stableAfter: stableAfter,
	}
}

func (n *VODNotifier) Name() string { return "vod_notifier" }

// Run notifies every approved clip not yet announced.
func (n *VODNotifier) Run(ctx context.Context) error {
	if n.current() == nil {
		return ErrNotConnected
	}

	rows, err := n.db.QueryContext(ctx, `
		SELECT id FROM vod_edits
		WHERE approved = true AND notification_sent = false
		ORDER BY created_at`)
	if err != nil {
		return err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if err := n.Notify(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Notify claims the clip and broadcasts it. A clip already claimed by
// another notifier is skipped.
func (n *VODNotifier) Notify(ctx context.Context, id string) error {
	conn := n.current()
	if conn == nil {
		return ErrNotConnected
	}

	var vod NewVOD
	err := n.db.QueryRowContext(ctx, `
		UPDATE vod_edits SET notification_sent = true
		WHERE id = $1 AND approved = true AND notification_sent = false
		RETURNING id, caption, video_url`,
		id,
	).Scan(&vod.ID, &vod.Caption, &vod.VideoURL)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to claim vod %s: %w", id, err)
	}

	if err := conn.Broadcast(ctx, vodUpdatesTopic, newVODEvent, vod); err != nil {
		// Release the claim so the next sweep retries
		if _, uerr := n.db.ExecContext(ctx,
			`UPDATE vod_edits SET notification_sent = false WHERE id = $1`, id); uerr != nil {
			slog.Error("failed to release vod claim", "error", uerr, "vod_id", id)
		}
		return fmt.Errorf("failed to broadcast vod %s: %w", id, err)
	}

	metrics.VODNotified()
	slog.Info("vod notification sent", "vod_id", id)
	return nil
}

// Listen keeps a realtime subscription open until ctx is canceled,
// reconnecting with backoff when the connection drops.
func (n *VODNotifier) Listen(ctx context.Context, dial Dialer) {
	go n.drain(ctx)

	backoff := n.minBackoff
	for {
		conn, err := n.connect(ctx, dial)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("realtime connect failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, n.maxBackoff)
			continue
		}
		up := time.Now()

		// Catch up on approvals made while disconnected
		go RunJob(ctx, n)

		select {
		case <-ctx.Done():
			n.setConn(nil)
			conn.Close()
			return
		case <-conn.Done():
			n.setConn(nil)
		}

		var wait time.Duration
		wait, backoff = n.afterDrop(backoff, time.Since(up))
		slog.Warn("realtime connection lost", "error", conn.Err(), "retry_in", wait)
		if !sleep(ctx, wait) {
			return
		}
	}
}

// afterDrop returns how long to wait before redialing and the backoff to
// carry forward. Only a connection that stayed up past stableAfter starts
// the backoff over.
func (n *VODNotifier) afterDrop(backoff, uptime time.Duration) (wait, next time.Duration) {
	if uptime >= n.stableAfter {
		return 0, n.minBackoff
	}
	return backoff, min(backoff*2, n.maxBackoff)
}

// sleep waits for d, reporting false if ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (n *VODNotifier) connect(ctx context.Context, dial Dialer) (Conn, error) {
	conn, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	changes := realtime.PostgresChanges{Event: "UPDATE", Schema: "public", Table: vodEditsTopic}
	if err := conn.Subscribe(ctx, vodEditsTopic, changes, n.handle); err != nil {
		conn.Close()
		return nil, err
	}
	n.setConn(conn)
	slog.Info("realtime subscribed", "topic", vodEditsTopic)
	return conn, nil
}

// handle runs on the realtime read loop and must not block.
func (n *VODNotifier) handle(c realtime.Change) {
	approved, _ := c.Record["approved"].(bool)
	sent, _ := c.Record["notification_sent"].(bool)
	id, _ := c.Record["id"].(string)
	if !approved || sent || id == "" {
		return
	}

	select {
	case n.queue <- id:
	default:
		slog.Warn("vod notify queue full, deferring to sweep", "vod_id", id)
	}
}

func (n *VODNotifier) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-n.queue:
			if err := n.Notify(ctx, id); err != nil {
				slog.Error("failed to notify vod", "error", err, "vod_id", id)
			}
		}
	}
}

func (n *VODNotifier) current() Conn {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.conn
}

func (n *VODNotifier) setConn(c Conn) {
	n.mu.Lock()
	n.conn = c
	n.mu.Unlock()
}
