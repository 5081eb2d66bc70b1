// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("realtime: connection closed")

const (
	defaultHeartbeat = 30 * time.Second
	writeTimeout     = 10 * time.Second
)

// PostgresChanges selects the row changes a channel receives.
type PostgresChanges struct {
	Event  string `json:"event"` // INSERT, UPDATE, DELETE or *
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"` // e.g. "id=eq.1"
}

// Change is one decoded postgres_changes message.
type Change struct {
	Type      string         `json:"type"`
	Schema    string         `json:"schema"`
	Table     string         `json:"table"`
	Record    map[string]any `json:"record"`
	OldRecord map[string]any `json:"old_record"`
}

// ChangeHandler runs on the read loop; long work should be handed off.
type ChangeHandler func(Change)

type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
	JoinRef string          `json:"join_ref,omitempty"`
}

// Client is one Phoenix websocket connection to Supabase Realtime.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	ref     atomic.Int64

	mu       sync.RWMutex
	joined   map[string]bool
	handlers map[string]ChangeHandler

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// Option configures Dial.
type Option func(*options)

type options struct {
	heartbeat time.Duration
}

// WithHeartbeat overrides the 30s heartbeat interval
func WithHeartbeat(d time.Duration) Option {
	return func(o *options) { o.heartbeat = d }
}

// Dial connects and starts the read and heartbeat loops.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	o := options{heartbeat: defaultHeartbeat}
	for _, opt := range opts {
		opt(&o)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	c := &Client{
		conn:     conn,
		joined:   make(map[string]bool),
		handlers: make(map[string]ChangeHandler),
		done:     make(chan struct{}),
	}

	go c.readLoop()
	go c.heartbeat(o.heartbeat)

	return c, nil
}

// Subscribe joins realtime:<topic> with a postgres_changes filter and
// routes matching changes to handler.
func (c *Client) Subscribe(ctx context.Context, topic string, changes PostgresChanges, handler ChangeHandler) error {
	if changes.Schema == "" {
		changes.Schema = "public"
	}
	if changes.Event == "" {
		changes.Event = "*"
	}

	full := "realtime:" + topic
	c.mu.Lock()
	c.handlers[full] = handler
	c.mu.Unlock()

	payload := map[string]any{
		"config": map[string]any{
			"postgres_changes": []PostgresChanges{changes},
		},
	}
	return c.join(ctx, full, payload)
}

// Broadcast sends event to everyone on realtime:<topic>, joining first if
// needed.
func (c *Client) Broadcast(ctx context.Context, topic, event string, payload any) error {
	full := "realtime:" + topic

	c.mu.RLock()
	joined := c.joined[full]
	c.mu.RUnlock()
	if !joined {
		join := map[string]any{
			"config": map[string]any{
				"broadcast": map[string]any{"self": false},
			},
		}
		if err := c.join(ctx, full, join); err != nil {
			return err
		}
	}

	return c.send(ctx, full, "broadcast", map[string]any{
		"type":    "broadcast",
		"event":   event,
		"payload": payload,
	}, "", "")
}

func (c *Client) join(ctx context.Context, topic string, payload any) error {
	ref := c.nextRef()
	if err := c.send(ctx, topic, "phx_join", payload, ref, ref); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	c.mu.Lock()
	c.joined[topic] = true
	c.mu.Unlock()

	return nil
}

// send writes one frame; an empty ref gets a fresh one.
func (c *Client) send(ctx context.Context, topic, event string, payload any, ref, joinRef string) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if ref == "" {
		ref = c.nextRef()
	}
	msg := message{Topic: topic, Event: event, Payload: raw, Ref: ref, JoinRef: joinRef}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteJSON(msg)
}

func (c *Client) nextRef() string {
	return strconv.FormatInt(c.ref.Add(1), 10)
}

// Done is closed when the connection ends, after which Err is set.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err reports why the connection ended
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close sends a close frame and stops both loops.
func (c *Client) Close() error {
	c.shutdown(ErrClosed)

	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	return c.conn.Close()
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		close(c.done)
	})
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("realtime read: %w", err))
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("realtime: undecodable message", "error", err)
			continue
		}

		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg message) {
	switch msg.Event {
	case "postgres_changes":
		var payload struct {
			Data Change `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			slog.Warn("realtime: bad postgres_changes payload", "topic", msg.Topic, "error", err)
			return
		}

		c.mu.RLock()
		handler := c.handlers[msg.Topic]
		c.mu.RUnlock()
		if handler != nil {
			handler(payload.Data)
		}

	case "phx_reply":
		var reply struct {
			Status   string         `json:"status"`
			Response map[string]any `json:"response"`
		}
		if err := json.Unmarshal(msg.Payload, &reply); err == nil && reply.Status != "ok" {
			slog.Error("realtime: request rejected", "topic", msg.Topic, "status", reply.Status, "response", reply.Response)
		}

	case "phx_error", "phx_close":
		slog.Warn("realtime: channel closed by server", "topic", msg.Topic, "event", msg.Event)
		c.mu.Lock()
		delete(c.joined, msg.Topic)
		c.mu.Unlock()

	case "system":
		slog.Debug("realtime: system message", "topic", msg.Topic, "payload", string(msg.Payload))
	}
}

func (c *Client) heartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.send(context.Background(), "phoenix", "heartbeat", map[string]any{}, "", ""); err != nil {
				c.shutdown(fmt.Errorf("realtime heartbeat: %w", err))
				c.conn.Close()
				return
			}
		}
	}
}
