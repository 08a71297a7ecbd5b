// Package websocket pushes dataset lifecycle events to connected dashboard
// clients. The hub fans typed event envelopes out to every client; clients
// never send commands upstream, only heartbeats, so the read side exists to
// detect disconnects.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"bitewatch/internal/config"
	"bitewatch/internal/infrastructure"
	"bitewatch/pkg/contracts/events"
)

// Hub maintains the set of active clients and fans server events out to
// them. An event is serialized once per broadcast, not once per client.
type Hub struct {
	cfg config.WebSocketConfig

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64
	messagesSent     int64
	droppedClients   int64

	quit    chan struct{}
	running bool
}

// NewHub creates a hub. Zero-valued config fields fall back to defaults.
func NewHub(cfg config.WebSocketConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = config.Default().WebSocket.PongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}

	return &Hub{
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start launches the hub loop. Starting twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop shuts the loop down and disconnects every client
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Broadcast queues one event for every connected client. It satisfies the
// hub dependency of the service layer. Events queued while the hub is
// stopped are dropped.
func (h *Hub) Broadcast(msg events.Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal event",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns a snapshot of hub counters
func (h *Hub) Stats() map[string]int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]int64{
		"active_clients":    int64(len(h.clients)),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"dropped_clients":   h.droppedClients,
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalConnections++
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.welcome(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				h.logger.Info("client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// welcome sends the connect acknowledgement to a freshly registered client
func (h *Hub) welcome(client *Client) {
	msg := events.NewMessage(events.MessageTypeConnect, map[string]string{
		"status":    "connected",
		"client_id": client.id,
	})
	msg.TraceID = client.traceID

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case client.send <- data:
	default:
		h.logger.Warn("connect message dropped, client buffer full",
			slog.String("client_id", client.id))
	}
}

// deliver fans one serialized event out to all clients. A client whose send
// buffer is full is disconnected rather than allowed to stall the loop.
func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := 0
	dropped := 0
	for _, client := range clients {
		select {
		case client.send <- message:
			sent++
		default:
			dropped++
			h.mu.Lock()
			close(client.send)
			delete(h.clients, client)
			h.mu.Unlock()
			h.logger.Warn("client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.mu.Lock()
	h.messagesSent += int64(sent)
	h.droppedClients += int64(dropped)
	h.mu.Unlock()

	h.logger.Debug("event broadcast",
		slog.Int("clients", len(clients)),
		slog.Int("sent", sent),
		slog.Int("dropped", dropped),
		slog.Int("payload_size", len(message)))
}
