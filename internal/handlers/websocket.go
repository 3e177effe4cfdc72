package handlers

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocketHandler broadcasts pipeline events to connected monitoring
// clients. Each client gets a buffered channel; when a client falls behind
// its buffer, events for that client are dropped rather than blocking the
// pipeline.
type WebSocketHandler struct {
	logger           arbor.ILogger
	bufferSize       int
	mu               sync.RWMutex
	clients          map[*websocket.Conn]chan models.PipelineEvent
	serverInstanceID string
}

// NewWebSocketHandler creates the event hub
func NewWebSocketHandler(config *common.WebSocketConfig, logger arbor.ILogger) *WebSocketHandler {
	bufferSize := 64
	if config != nil && config.BufferSize > 0 {
		bufferSize = config.BufferSize
	}

	h := &WebSocketHandler{
		logger:           logger,
		bufferSize:       bufferSize,
		clients:          make(map[*websocket.Conn]chan models.PipelineEvent),
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket event hub initialized")
	return h
}

var _ interfaces.EventPublisher = (*WebSocketHandler)(nil)

// Publish fans an event out to all connected clients without blocking
func (h *WebSocketHandler) Publish(event models.PipelineEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn, ch := range h.clients {
		select {
		case ch <- event:
		default:
			h.logger.Debug().
				Str("remote", conn.RemoteAddr().String()).
				Str("kind", string(event.Kind)).
				Msg("Dropping event for slow WebSocket client")
		}
	}
}

// HandleWebSocket upgrades the connection and streams events until the
// client disconnects
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	ch := make(chan models.PipelineEvent, h.bufferSize)

	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	h.logger.Debug().
		Str("remote", conn.RemoteAddr().String()).
		Int("clients", h.clientCount()).
		Msg("WebSocket client connected")

	conn.WriteJSON(map[string]string{
		"type":               "hello",
		"server_instance_id": h.serverInstanceID,
	})

	common.SafeGo(h.logger, "wsWriteLoop", func() {
		h.writeLoop(conn, ch)
	})
	h.readLoop(conn)
}

func (h *WebSocketHandler) writeLoop(conn *websocket.Conn, ch chan models.PipelineEvent) {
	for event := range ch {
		if err := conn.WriteJSON(event); err != nil {
			h.remove(conn)
			return
		}
	}
}

// readLoop discards inbound frames; it exists to detect disconnects
func (h *WebSocketHandler) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *WebSocketHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
	h.mu.Unlock()
	conn.Close()
}

func (h *WebSocketHandler) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients
func (h *WebSocketHandler) Close() {
	h.mu.Lock()
	for conn, ch := range h.clients {
		close(ch)
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}
