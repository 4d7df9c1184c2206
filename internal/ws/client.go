package ws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tush00nka/bbbab_chat/internal/pkg/auth"
)

// Client is one authenticated WebSocket connection. A user may hold several.
type Client struct {
	ID       string
	UserID   uint
	Username string

	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	ctx     context.Context
	cancel  context.CancelFunc
	limiter *rate.Limiter
	log     *zap.Logger

	mu       sync.RWMutex
	isClosed bool
}

func newClient(hub *Hub, conn *websocket.Conn, id auth.Identity) *Client {
	ctx, cancel := context.WithCancel(hub.ctx)
	clientID := uuid.NewString()
	return &Client{
		ID:       clientID,
		UserID:   id.UserID,
		Username: id.Username,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, maxSendChannelSize),
		ctx:      ctx,
		cancel:   cancel,
		limiter:  rate.NewLimiter(hub.limit, hub.burst),
		log:      hub.log.With(zap.String("conn_id", clientID), zap.Uint("user_id", id.UserID)),
	}
}

// ReadPump handles frames in arrival order until the connection drops.
func (c *Client) ReadPump() {
	defer c.disconnect()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				c.log.Warn("client read error", zap.Error(err))
			}
			return
		}
		c.handleFrame(data)
	}
}

// WritePump owns all writes to the connection, one frame per event.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendEvent(event string, data any) bool {
	frame, err := encode(event, data)
	if err != nil {
		c.log.Error("failed to encode event", zap.String("event", event), zap.Error(err))
		return false
	}
	return c.SendRaw(frame)
}

func (c *Client) sendError(message string) {
	c.SendEvent(EventError, ErrorPayload{Message: message})
}

// SendRaw queues a frame without blocking. A full buffer drops the frame.
func (c *Client) SendRaw(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.isClosed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		c.log.Warn("send buffer full, dropping frame")
		return false
	}
}

// Close stops the connection; WritePump flushes a close frame and exits.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed {
		return
	}
	c.isClosed = true
	c.cancel()
	close(c.send)
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosed
}

func (c *Client) disconnect() {
	left := c.hub.unregister(c)
	c.Close()

	for _, chatID := range left {
		c.userLeft(chatID)
	}
}
