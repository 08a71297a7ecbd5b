package websocket

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"bitewatch/internal/infrastructure"
)

const (
	// writeWait bounds a single frame write to the peer
	writeWait = 10 * time.Second

	// maxMessageSize caps inbound frames; clients only send heartbeats
	maxMessageSize = 512

	// sendBuffer is the per-client outbound queue depth
	sendBuffer = 256
)

// heartbeatFrame is the keepalive the dashboard sends over the data channel
// in addition to protocol-level pongs
const heartbeatFrame = `{"type":"heartbeat"}`

// Connection is the subset of a websocket connection the client pumps use.
// Tests substitute an in-memory implementation.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// gorillaConn adapts a gorilla connection to the Connection interface
type gorillaConn struct {
	*websocket.Conn
}

func (g gorillaConn) RemoteAddr() string {
	if addr := g.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Client is the middleman between one websocket connection and the hub
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger
}

// NewClient wraps a gorilla connection into a hub client
func NewClient(hub *Hub, conn *websocket.Conn, traceID string, logger *slog.Logger) *Client {
	return newClient(hub, gorillaConn{conn}, traceID, logger)
}

func newClient(hub *Hub, conn Connection, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	logger = logger.With(
		slog.String("component", "websocket.client"),
		slog.String("client_id", id),
	)
	if traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger:      logger,
	}
}

// readPump drains the connection until it errors. Inbound traffic is
// heartbeats only; its real job is resetting the read deadline and
// detecting the disconnect.
func (c *Client) readPump() {
	defer func() {
		c.logger.Info("client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("unexpected close",
					slog.String("error", err.Error()))
			}
			return
		}

		if string(message) == heartbeatFrame {
			c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
			c.logger.Debug("heartbeat received")
		}
	}
}

// writePump forwards queued events to the peer and keeps the connection
// alive with protocol pings
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("write failed",
					slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

// ServeWS attaches an upgraded connection to the hub and starts its pumps.
// The connection is closed immediately when the hub is already stopped.
func ServeWS(hub *Hub, conn *websocket.Conn, traceID string, logger *slog.Logger) {
	client := NewClient(hub, conn, traceID, logger)

	select {
	case hub.register <- client:
	case <-hub.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
