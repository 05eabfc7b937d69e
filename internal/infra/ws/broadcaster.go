package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"amm_sim/internal/domain"
	"amm_sim/internal/infra"
	"amm_sim/internal/pricefeed"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second

	// sendBuffer is how many messages a client may lag behind before it is dropped.
	sendBuffer = 64
)

// Message is the envelope pushed to every client.
type Message struct {
	Type string        `json:"type"`
	Data domain.Candle `json:"data"`
}

// client owns one connection. Only its writer goroutine writes data frames.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster fans candle updates out to websocket clients. Candles older
// than the last published bucket are dropped. Publish never blocks on a
// socket: a client whose send buffer is full is disconnected.
type Broadcaster struct {
	clients  map[*client]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
	guard    pricefeed.Guard
	metrics  *infra.Metrics
}

// NewBroadcaster creates a broadcaster. metrics may be nil.
func NewBroadcaster(metrics *infra.Metrics) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		metrics: metrics,
	}
}

// Publish queues c for every client unless it is older than the last
// published candle. It reports whether c was accepted.
func (b *Broadcaster) Publish(c domain.Candle) bool {
	if !b.guard.Accept(c) {
		slog.Debug("Dropping stale candle", slog.Int64("bucket", c.BucketStart))
		return false
	}

	msg, err := json.Marshal(Message{Type: "candle", Data: c})
	if err != nil {
		slog.Error("Failed to marshal candle", slog.Any("error", err))
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for cl := range b.clients {
		select {
		case cl.send <- msg:
		default:
			slog.Warn("Websocket client too slow, dropping", slog.String("remote", cl.conn.RemoteAddr().String()))
			b.removeLocked(cl)
		}
	}
	return true
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Handler returns an http.HandlerFunc to accept websocket connections.
// A new client first receives the last published candle, if any.
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("Websocket upgrade failed", slog.Any("error", err))
			return
		}

		cl := b.register(conn)
		slog.Info("Websocket client connected", slog.String("remote", r.RemoteAddr))

		go b.writeLoop(cl)
		go b.readLoop(cl)
	}
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for cl := range b.clients {
		_ = cl.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
			time.Now().Add(writeWait))
		b.removeLocked(cl)
	}
}

// register adds conn and queues the last published candle ahead of any
// later Publish.
func (b *Broadcaster) register(conn *websocket.Conn) *client {
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	b.mu.Lock()
	if last, ok := b.guard.Last(); ok {
		if msg, err := json.Marshal(Message{Type: "candle", Data: last}); err == nil {
			cl.send <- msg
		}
	}
	b.clients[cl] = struct{}{}
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.IncrementClients()
	}
	return cl
}

func (b *Broadcaster) writeLoop(cl *client) {
	for msg := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Warn("Websocket write failed, dropping client", slog.Any("error", err))
			b.remove(cl)
			return
		}
	}
}

// readLoop only detects disconnects; clients send nothing.
func (b *Broadcaster) readLoop(cl *client) {
	defer b.remove(cl)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) remove(cl *client) {
	b.mu.Lock()
	b.removeLocked(cl)
	b.mu.Unlock()
}

func (b *Broadcaster) removeLocked(cl *client) {
	if _, ok := b.clients[cl]; !ok {
		return
	}
	delete(b.clients, cl)
	close(cl.send)
	cl.conn.Close()
	if b.metrics != nil {
		b.metrics.DecrementClients()
	}
}
