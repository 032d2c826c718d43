package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/arbiter/internal/logging"
)

const (
	eventWriteTimeout = 5 * time.Second
	eventReadLimit    = 4096
)

// Hub broadcasts dispute lifecycle events to connected WebSocket observers.
// It implements dispute.EventSink. Slow or dead connections are dropped
// rather than blocking the request path.
type Hub struct {
	log      *logging.Logger
	upgrader websocket.Upgrader

	mu        sync.Mutex
	seq       int64
	observers map[*observer]struct{}
}

// observer serializes writes to one WebSocket connection.
type observer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (o *observer) send(frame any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
	return o.conn.WriteJSON(frame)
}

// NewHub creates an event hub.
func NewHub(log *logging.Logger, allowedOrigins []string) *Hub {
	return &Hub{
		log:       log.Sub("events"),
		observers: make(map[*observer]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkEventOrigin(allowedOrigins),
		},
	}
}

// checkEventOrigin validates WebSocket Origin headers. Requests with no
// Origin (non-browser clients) are always allowed.
func checkEventOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// handleWebSocket upgrades the connection and keeps it registered until the
// peer disconnects.
func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(eventReadLimit)

	o := &observer{conn: conn}
	h.mu.Lock()
	h.observers[o] = struct{}{}
	n := len(h.observers)
	h.mu.Unlock()
	h.log.Debug().Str("remote", r.RemoteAddr).Int("observers", n).Msg("observer connected")

	// Observers only listen; the read loop just detects disconnects.
	go func() {
		defer h.drop(o)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Emit broadcasts one event to all observers.
func (h *Hub) Emit(event string, payload map[string]any) {
	h.mu.Lock()
	h.seq++
	frame := map[string]any{
		"seq":     h.seq,
		"event":   event,
		"payload": payload,
		"ts":      time.Now().UTC().Format(time.RFC3339),
	}
	targets := make([]*observer, 0, len(h.observers))
	for o := range h.observers {
		targets = append(targets, o)
	}
	h.mu.Unlock()

	for _, o := range targets {
		if err := o.send(frame); err != nil {
			h.log.Debug().Err(err).Msg("dropping dead observer")
			h.drop(o)
		}
	}
}

// Observers returns the number of connected observers.
func (h *Hub) Observers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// CloseAll disconnects every observer, used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	targets := make([]*observer, 0, len(h.observers))
	for o := range h.observers {
		targets = append(targets, o)
	}
	h.observers = make(map[*observer]struct{})
	h.mu.Unlock()

	for _, o := range targets {
		o.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(eventWriteTimeout))
		o.conn.Close()
	}
}

func (h *Hub) drop(o *observer) {
	h.mu.Lock()
	_, ok := h.observers[o]
	delete(h.observers, o)
	h.mu.Unlock()
	if ok {
		o.conn.Close()
	}
}
