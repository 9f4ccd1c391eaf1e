// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/okian/pulse/internal/adapters/http/stream"
)

// Subscriber registers live listeners for rating broadcasts.
type Subscriber interface {
	Subscribe(ctx context.Context, conn stream.Conn) (cancel func())
}

// StreamHandler upgrades feedback-stream requests to WebSocket and
// attaches them to the broadcast hub.
type StreamHandler struct {
	subscriber Subscriber
	upgrader   websocket.Upgrader
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(subscriber Subscriber) *StreamHandler {
	return &StreamHandler{
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleStream handles GET /feedback-stream requests.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}

	cancel := h.subscriber.Subscribe(r.Context(), conn)
	defer cancel()

	// Listeners are write-only. The read loop only exists to observe
	// the close handshake and connection errors.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
