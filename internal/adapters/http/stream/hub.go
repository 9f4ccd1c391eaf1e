// Package stream maintains the registry of live feedback listeners
// and fans newly recorded ratings out to them. Delivery is
// best-effort: a slow or broken listener never fails the write that
// triggered the broadcast.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// Update is the payload broadcast after a rating is recorded.
type Update struct {
	EventID   string    `json:"event_id"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// Conn is the minimal connection surface the hub writes to. It is
// satisfied by *websocket.Conn and by test fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// client owns one subscribed connection and its send buffer.
type client struct {
	conn Conn
	send chan Update
	done chan struct{}
	once sync.Once
}

// Hub is the lifecycle-scoped listener registry.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	sendBuffer int
	stopped    bool
	logger     logger.Logger
}

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithSendBuffer sets the per-client send buffer. When the buffer is
// full, further updates to that client are dropped.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithLogger sets a custom logger for the hub.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*client]struct{}),
		sendBuffer: 16,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get()
	}
	return h
}

// Subscribe registers a connection and starts its writer. The returned
// cancel function detaches and closes the connection; it is safe to
// call more than once.
func (h *Hub) Subscribe(ctx context.Context, conn Conn) (cancel func()) {
	c := &client{
		conn: conn,
		send: make(chan Update, h.sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		_ = conn.Close()
		return func() {}
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.UpdateStreamClients(n)

	go h.writer(ctx, c)
	return func() { h.drop(c) }
}

// Broadcast queues the update for every currently subscribed client.
// It iterates a snapshot of the registry so concurrent subscribes and
// unsubscribes never race the fan-out, and it never blocks: a full
// client buffer drops the update for that client only.
func (h *Hub) Broadcast(ctx context.Context, u Update) {
	h.mu.RLock()
	snapshot := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		select {
		case c.send <- u:
			metrics.RecordBroadcastSent()
		default:
			metrics.RecordBroadcastDropped()
			h.logger.Debug(ctx, "dropping update for slow listener",
				logger.String("eventID", u.EventID),
			)
		}
	}
}

// Len returns the number of subscribed clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop detaches and closes every client. Subscribes after Stop are
// closed immediately.
func (h *Hub) Stop() {
	h.mu.Lock()
	h.stopped = true
	snapshot := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	for _, c := range snapshot {
		h.drop(c)
	}
}

// writer drains the client's buffer onto the connection until the
// client detaches, the context ends, or a write fails.
func (h *Hub) writer(ctx context.Context, c *client) {
	for {
		select {
		case u := <-c.send:
			if err := c.conn.WriteJSON(u); err != nil {
				h.logger.Debug(ctx, "listener write failed; detaching",
					logger.Error(err),
				)
				h.drop(c)
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			h.drop(c)
			return
		}
	}
}

// drop removes the client from the registry and closes it exactly once.
func (h *Hub) drop(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c)
		n := len(h.clients)
		h.mu.Unlock()
		metrics.UpdateStreamClients(n)

		close(c.done)
		_ = c.conn.Close()
	})
}
