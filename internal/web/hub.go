package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	refreshMessage = "REFRESH"
	// defaultWriteWait bounds each push so a stalled browser cannot hold the hub.
	defaultWriteWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub holds the open websocket connections of each session and tells them
// to refresh when the session changes.
type Hub struct {
	mu        sync.Mutex
	clients   map[string]map[*websocket.Conn]struct{}
	writeWait time.Duration
	log       zerolog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:   make(map[string]map[*websocket.Conn]struct{}),
		writeWait: defaultWriteWait,
		log:       logger,
	}
}

// Register adds a connection for key.
func (h *Hub) Register(key string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[key] == nil {
		h.clients[key] = make(map[*websocket.Conn]struct{})
	}
	h.clients[key][conn] = struct{}{}
	h.log.Debug().Str("session", key).Msg("WebSocket client connected")
}

// Unregister removes a connection (when the tab is closed).
func (h *Hub) Unregister(key string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(key, conn)
}

// Notify asks every connection of key to refresh.
func (h *Hub) Notify(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients[key] {
		h.sendLocked(key, conn)
	}
}

// Refresh asks a single registered connection of key to refresh.
func (h *Hub) Refresh(key string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[key][conn]; ok {
		h.sendLocked(key, conn)
	}
}

// sendLocked serializes writes: gorilla connections allow one writer.
func (h *Hub) sendLocked(key string, conn *websocket.Conn) {
	conn.SetWriteDeadline(time.Now().Add(h.writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(refreshMessage)); err != nil {
		h.log.Warn().Err(err).Str("session", key).Msg("Failed to send WS message, removing client")
		conn.Close()
		h.removeLocked(key, conn)
	}
}

// Connections returns how many connections key has.
func (h *Hub) Connections(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[key])
}

func (h *Hub) removeLocked(key string, conn *websocket.Conn) {
	conns, ok := h.clients[key]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, key)
	}
}
