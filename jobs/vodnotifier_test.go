// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/danielhkuo/riot-network/realtime"
	"github.com/danielhkuo/riot-network/testutil"
)

type broadcast struct {
	topic, event string
	payload      any
}

type fakeConn struct {
	mu         sync.Mutex
	topics     []string
	broadcasts []broadcast
	failSend   bool
	done       chan struct{}
	closed     bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{done: make(chan struct{})}
}

func (f *fakeConn) Subscribe(ctx context.Context, topic string, changes realtime.PostgresChanges, handler realtime.ChangeHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	return nil
}

func (f *fakeConn) Broadcast(ctx context.Context, topic, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return errors.New("socket closed")
	}
	f.broadcasts = append(f.broadcasts, broadcast{topic, event, payload})
	return nil
}

func (f *fakeConn) Done() <-chan struct{} { return f.done }
func (f *fakeConn) Err() error            { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) subscribed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.topics)
}

const claimSQL = "UPDATE vod_edits SET notification_sent = true"

func connected(db *sql.DB) (*VODNotifier, *fakeConn) {
	n := NewVODNotifier(db)
	conn := newFakeConn()
	n.setConn(conn)
	return n, conn
}

func TestNotify_ClaimsAndBroadcasts(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	n, conn := connected(db)

	mock.ExpectQuery(regexp.QuoteMeta(claimSQL)).
		WithArgs("vod-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "caption", "video_url"}).
			AddRow("vod-1", "Knockout", "https://cdn/clip.mp4"))

	if err := n.Notify(context.Background(), "vod-1"); err != nil {
		t.Fatal(err)
	}

	if len(conn.broadcasts) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(conn.broadcasts))
	}
	b := conn.broadcasts[0]
	if b.topic != "vod_updates" || b.event != "new_vod" {
		t.Errorf("unexpected broadcast %s/%s", b.topic, b.event)
	}
	if vod, ok := b.payload.(NewVOD); !ok || vod.Caption != "Knockout" {
		t.Errorf("unexpected payload %#v", b.payload)
	}
}

func TestNotify_AlreadySent(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	n, conn := connected(db)

	mock.ExpectQuery(regexp.QuoteMeta(claimSQL)).
		WithArgs("vod-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "caption", "video_url"}))

	if err := n.Notify(context.Background(), "vod-1"); err != nil {
		t.Fatal(err)
	}
	if len(conn.broadcasts) != 0 {
		t.Error("claimed clip must not be broadcast twice")
	}
}

func TestNotify_BroadcastFailureReleasesClaim(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	n, conn := connected(db)
	conn.failSend = true

	mock.ExpectQuery(regexp.QuoteMeta(claimSQL)).
		WithArgs("vod-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "caption", "video_url"}).
			AddRow("vod-1", "Knockout", nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE vod_edits SET notification_sent = false")).
		WithArgs("vod-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := n.Notify(context.Background(), "vod-1"); err == nil {
		t.Error("expected broadcast error")
	}
}

func TestNotifier_NotConnected(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	n := NewVODNotifier(db)

	if err := n.Run(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestNotifier_SweepsPending(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	n, conn := connected(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM vod_edits")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("vod-1").AddRow("vod-2"))
	for _, id := range []string{"vod-1", "vod-2"} {
		mock.ExpectQuery(regexp.QuoteMeta(claimSQL)).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "caption", "video_url"}).AddRow(id, "clip", nil))
	}

	if err := n.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(conn.broadcasts) != 2 {
		t.Errorf("expected 2 broadcasts, got %d", len(conn.broadcasts))
	}
}

func TestNotifier_HandleFiltersChanges(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	n := NewVODNotifier(db)

	tests := []struct {
		name   string
		record map[string]any
		queued bool
	}{
		{"approved and unsent", map[string]any{"id": "vod-1", "approved": true, "notification_sent": false}, true},
		{"not approved", map[string]any{"id": "vod-2", "approved": false, "notification_sent": false}, false},
		{"already sent", map[string]any{"id": "vod-3", "approved": true, "notification_sent": true}, false},
		{"missing id", map[string]any{"approved": true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n.handle(realtime.Change{Type: "UPDATE", Table: "vod_edits", Record: tt.record})
			got := len(n.queue) > 0
			if got != tt.queued {
				t.Errorf("queued = %v, want %v", got, tt.queued)
			}
			if got {
				<-n.queue
			}
		})
	}
}

func TestNotifier_ListenSubscribesAndSweeps(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	n := NewVODNotifier(db)
	conn := newFakeConn()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM vod_edits")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		n.Listen(ctx, func(ctx context.Context) (Conn, error) { return conn, nil })
		close(stopped)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for conn.subscribed() == 0 || mock.ExpectationsWereMet() != nil {
		if time.Now().After(deadline) {
			t.Fatal("notifier never subscribed and swept")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}

	if conn.subscribed() != 1 {
		t.Errorf("expected one subscription, got %d", conn.subscribed())
	}
}

func TestNotifier_AfterDrop(t *testing.T) {
	n := NewVODNotifier(nil)

	tests := []struct {
		name     string
		backoff  time.Duration
		uptime   time.Duration
		wantWait time.Duration
		wantNext time.Duration
	}{
		{"stable connection resets", 8 * time.Second, time.Minute, 0, minBackoff},
		{"flapping connection waits", minBackoff, time.Second, minBackoff, 2 * minBackoff},
		{"backoff is capped", 40 * time.Second, 0, 40 * time.Second, maxBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wait, next := n.afterDrop(tt.backoff, tt.uptime)
			if wait != tt.wantWait || next != tt.wantNext {
				t.Errorf("afterDrop(%v, %v) = (%v, %v), want (%v, %v)",
					tt.backoff, tt.uptime, wait, next, tt.wantWait, tt.wantNext)
			}
		})
	}
}

func TestNotifier_ListenBacksOffWhenDroppedRightAway(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	n := NewVODNotifier(db)
	n.minBackoff = 10 * time.Millisecond
	n.maxBackoff = 40 * time.Millisecond

	var mu sync.Mutex
	dials := 0
	dial := func(ctx context.Context) (Conn, error) {
		mu.Lock()
		dials++
		mu.Unlock()
		// Accepted, then closed by the server straight away
		conn := newFakeConn()
		close(conn.done)
		return conn, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	n.Listen(ctx, dial)

	mu.Lock()
	defer mu.Unlock()
	// 10+20+40+40+40+40 ms of waiting fits about seven dials in the window
	if dials < 2 || dials > 10 {
		t.Errorf("expected a handful of backed-off dials, got %d", dials)
	}
}
