package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"blog-be/internal/observability"
)

// Hub tracks the connected clients of this process and broadcasts to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// ServeHTTP upgrades the request and keeps the connection until the peer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(uuid.NewString(), conn)
	h.register(client)
	h.log.Info("client connected", zap.String("client_id", client.ID), zap.String("remote_addr", r.RemoteAddr))

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go client.writeLoop(h.log)
	go h.readLoop(client)
}

// readLoop discards inbound frames; clients only listen.
func (h *Hub) readLoop(c *Client) {
	defer func() {
		h.unregister(c)
		c.close()
		h.log.Info("client disconnected", zap.String("client_id", c.ID))
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read failed", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	observability.WebSocketConnections.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.ID]
	delete(h.clients, c.ID)
	h.mu.Unlock()
	if ok {
		observability.WebSocketConnections.Dec()
	}
}

// Broadcast enqueues payload for every connected client and returns how many accepted it.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, c := range h.clients {
		if c.trySend(payload) {
			delivered++
			continue
		}
		h.log.Warn("dropped event for slow client", zap.String("client_id", c.ID))
	}
	return delivered
}

// Publish broadcasts ev to the clients of this process only.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	h.Broadcast(payload)
	return nil
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
		c.close()
	}
}
