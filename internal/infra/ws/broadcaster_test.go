package ws

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"amm_sim/internal/domain"
	"amm_sim/internal/infra"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, b *Broadcaster, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, b.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readCandle(t *testing.T, conn *websocket.Conn) domain.Candle {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Type != "candle" {
		t.Errorf("expected candle message, got %q", msg.Type)
	}
	return msg.Data
}

func TestBroadcaster_PublishOrdered(t *testing.T) {
	m := &infra.Metrics{}
	b := NewBroadcaster(m)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, b, 1)
	if m.Snapshot().ActiveClients != 1 {
		t.Errorf("expected 1 active client metric, got %d", m.Snapshot().ActiveClients)
	}

	first := domain.NewCandle(120, 1.0)
	stale := domain.NewCandle(60, 9.9)
	sameBucket := domain.NewCandle(120, 1.0)
	sameBucket.Apply(1.2)

	if !b.Publish(first) {
		t.Fatal("first candle should be accepted")
	}
	if b.Publish(stale) {
		t.Error("stale candle should be dropped")
	}
	if !b.Publish(sameBucket) {
		t.Error("same-bucket update should be accepted")
	}

	if got := readCandle(t, conn); got != first {
		t.Errorf("expected %+v, got %+v", first, got)
	}
	if got := readCandle(t, conn); got != sameBucket {
		t.Errorf("expected %+v, got %+v", sameBucket, got)
	}
}

func TestBroadcaster_LateClientGetsLastCandle(t *testing.T) {
	b := NewBroadcaster(nil)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	c := domain.NewCandle(300, 2.5)
	b.Publish(c)

	conn := dial(t, srv)
	if got := readCandle(t, conn); got != c {
		t.Errorf("expected %+v, got %+v", c, got)
	}
}

func TestBroadcaster_Disconnect(t *testing.T) {
	m := &infra.Metrics{}
	b := NewBroadcaster(m)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, b, 1)

	conn.Close()
	waitForClients(t, b, 0)
	if m.Snapshot().ActiveClients != 0 {
		t.Errorf("expected 0 active clients, got %d", m.Snapshot().ActiveClients)
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster(nil)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	dial(t, srv)
	dial(t, srv)
	waitForClients(t, b, 2)

	b.Close()
	if b.Clients() != 0 {
		t.Errorf("expected 0 clients after close, got %d", b.Clients())
	}
}

func TestBroadcaster_StalledClientDoesNotBlockPublish(t *testing.T) {
	m := &infra.Metrics{}
	b := NewBroadcaster(m)

	// A client whose writer never runs, so its send buffer only fills.
	stalled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.register(conn)
	}))
	defer stalled.Close()
	healthy := httptest.NewServer(b.Handler())
	defer healthy.Close()

	dial(t, stalled)
	waitForClients(t, b, 1)
	conn := dial(t, healthy)
	waitForClients(t, b, 2)

	errc := make(chan error, 1)
	go func() {
		for i := 1; i <= sendBuffer+1; i++ {
			b.Publish(domain.NewCandle(int64(i*60), float64(i)))

			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				errc <- err
				return
			}
			if msg.Data.BucketStart != int64(i*60) {
				errc <- fmt.Errorf("expected bucket %d, got %+v", i*60, msg.Data)
				return
			}
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a stalled client")
	}

	if b.Clients() != 1 || m.Snapshot().ActiveClients != 1 {
		t.Errorf("expected stalled client to be dropped, got %d clients", b.Clients())
	}
}
