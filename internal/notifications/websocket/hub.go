package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/internal/notifications"
)

// Hub broadcasts registry events to all connected dashboard clients. Clients
// are read-only; inbound frames are drained and discarded.
type Hub struct {
	connections map[string]*Connection
	mu          sync.RWMutex
	broadcast   chan notifications.Event
	register    chan *Connection
	unregister  chan *Connection
	stop        chan struct{}
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID   string
	Conn *websocket.Conn
	Send chan notifications.Event
}

// NewHub creates a hub. Call Run in its own goroutine before serving.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		broadcast:   make(chan notifications.Event, 256),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		stop:        make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Publish implements notifications.Publisher. Events are dropped rather than
// blocking a workflow when the broadcast buffer is full.
func (h *Hub) Publish(event notifications.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast buffer full, dropping event",
			zap.String("type", string(event.Type)))
	}
}

// ServeWS upgrades an HTTP request to a WebSocket subscription.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	connection := &Connection{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan notifications.Event, 64),
	}

	select {
	case h.register <- connection:
	case <-h.stop:
		conn.Close()
		return
	}

	go h.readPump(connection)
	go h.writePump(connection)
}

// Run owns the connection set. It exits when Close is called.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			h.mu.Unlock()
			h.logger.Debug("connection registered", zap.String("connection_id", conn.ID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				close(conn.Send)
			}
			h.mu.Unlock()
			h.logger.Debug("connection unregistered", zap.String("connection_id", conn.ID))

		case event := <-h.broadcast:
			h.mu.Lock()
			for id, conn := range h.connections {
				select {
				case conn.Send <- event:
				default:
					delete(h.connections, id)
					close(conn.Send)
				}
			}
			h.mu.Unlock()

		case <-h.stop:
			h.mu.Lock()
			for id, conn := range h.connections {
				delete(h.connections, id)
				close(conn.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop hands a connection back for unregistration. It must not block once
// the hub has shut down and Run no longer receives.
func (h *Hub) drop(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.stop:
	}
}

// readPump drains client frames so pong handlers fire and closes are noticed.
func (h *Hub) readPump(conn *Connection) {
	defer func() {
		h.drop(conn)
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(512)
	conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump pushes events and keepalive pings to a single connection.
func (h *Hub) writePump(conn *Connection) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Close shuts the hub down and disconnects all clients.
func (h *Hub) Close() {
	close(h.stop)
}
