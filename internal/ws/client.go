package ws

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeDeadline = 10 * time.Second
	pongWait      = 60 * time.Second
	pingInterval  = 30 * time.Second
	maxFrameSize  = 64 * 1024
	sendBuffer    = 256
)

// Client is one live socket connection for one user.
type Client struct {
	UserID string
	ConnID string

	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func NewClient(userID, connID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		ConnID: connID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Send queues a frame; a slow consumer's frame is dropped rather than
// blocking the hub.
func (c *Client) Send(b []byte) {
	select {
	case c.send <- b:
	case <-c.done:
	default:
	}
}

// Close stops the write pump. Safe to call once only; the handler owns
// the lifecycle.
func (c *Client) Close() {
	close(c.done)
}

// WritePump drains the send channel onto the socket and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}

// readLoop reads frames until the socket closes, handing each payload to
// the dispatch callback.
func (c *Client) readLoop(dispatch func(data []byte)) {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		dispatch(data)
	}
}
