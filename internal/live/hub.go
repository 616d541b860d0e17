// Package live pushes "something changed" events from the store to connected
// admin dashboards over websockets.
package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	applog "clothsy/internal/log"
)

// Source is anything that calls back after it changed. *store.Store satisfies it.
type Source interface {
	Subscribe(fn func()) (unsubscribe func())
}

type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
}

// Hub fans store change events out to attached clients. A slow client loses
// events rather than holding up the store.
type Hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	closed  bool
	buffer  int
	unsub   func()
}

func NewHub(src Source, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 8
	}
	h := &Hub{clients: map[chan []byte]struct{}{}, buffer: buffer}
	if src != nil {
		h.unsub = src.Subscribe(func() { h.Publish("changed") })
	}
	return h
}

// Publish never blocks.
func (h *Hub) Publish(kind string) {
	msg, _ := json.Marshal(Event{Type: kind, At: time.Now().UTC()})

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			applog.Warn(nil, "live.client.slow", nil, nil)
		}
	}
}

// Attach registers a client. The returned channel is closed by detach or Close.
func (h *Hub) Attach() (<-chan []byte, func()) {
	ch := make(chan []byte, h.buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.clients[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}
		})
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops listening to the source and disconnects every client.
func (h *Hub) Close() {
	if h.unsub != nil {
		h.unsub()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

// Upgrade rejects requests that are not websocket handshakes.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler serves one websocket connection until either side goes away.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		events, detach := h.Attach()
		defer detach()
		applog.Info(nil, "live.connect", map[string]any{"clients": h.Clients()})

		// reader: only used to notice the client closing
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return
			case msg, ok := <-events:
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					applog.Warn(nil, "live.write.fail", err, nil)
					return
				}
			}
		}
	})
}
