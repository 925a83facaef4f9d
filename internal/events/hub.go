package events

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"rent-backend/internal/timeutil"
)

const (
	TypePaymentCreated   = "payment.created"
	TypePaymentStatus    = "payment.status"
	TypeReadingsUploaded = "readings.uploaded"
	TypeTenantRegistered = "tenant.registered"
	TypeTenantDeleted    = "tenant.deleted"

	bufferSize   = 64
	writeTimeout = 5 * time.Second
)

// Event is one change pushed to connected owner dashboards
type Event struct {
	Type      string      `json:"type"`
	TenantID  int         `json:"tenant_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher accepts events. Publish never blocks.
type Publisher interface {
	Publish(e Event)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans events out to every connected websocket client.
type Hub struct {
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan Event
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, bufferSize),
		logger:    logger.Named("events"),
	}
}

// Publish queues e for broadcast. When the queue is full the event is dropped.
func (h *Hub) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = timeutil.Now()
	}
	select {
	case h.broadcast <- e:
	default:
		h.logger.Warn("event queue full, dropping event", zap.String("type", e.Type))
	}
}

// Run delivers queued events until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.clientsMux.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.clientsMux.Unlock()
			return
		case e := <-h.broadcast:
			h.send(e)
		}
	}
}

func (h *Hub) send(e Event) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := client.WriteJSON(e); err != nil {
			client.Close()
			delete(h.clients, client)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and keeps the client registered until it
// disconnects. Clients only receive; anything they send is discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.clientsMux.Lock()
	h.clients[conn] = true
	h.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.clientsMux.Lock()
			if h.clients[conn] {
				delete(h.clients, conn)
				conn.Close()
			}
			h.clientsMux.Unlock()
			return
		}
	}
}
