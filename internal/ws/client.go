package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var (
	ErrClientClosed   = errors.New("websocket client closed")
	ErrSendBufferFull = errors.New("websocket send buffer full")
)

// ConnInfo describes a websocket connection for logs and lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func (i ConnInfo) logArgs() []any {
	return []any{"conn_id", i.ConnID, "user_id", i.UserID, "ip", i.IP}
}

// Conn is the subset of *websocket.Conn used by a Client.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one live websocket connection. Outbound frames go through a
// bounded FIFO drained by a single writer goroutine.
type Client struct {
	info   ConnInfo
	conn   Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger

	// registeredAs is owned by the Registry and guarded by its mutex.
	registeredAs string
}

func NewClient(conn Conn, info ConnInfo, buffer int, logger *slog.Logger) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		info:   info,
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		logger: logger.With(info.logArgs()...),
	}
}

func (c *Client) Info() ConnInfo {
	return c.info
}

// Send marshals frame and queues it for writing.
func (c *Client) Send(frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.SendRaw(data)
}

// SendRaw queues an encoded frame without blocking. A full queue means the peer
// cannot keep up; the client is closed and ErrSendBufferFull returned.
func (c *Client) SendRaw(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		c.logger.Warn("websocket send buffer full, closing connection")
		c.Close()
		return ErrSendBufferFull
	}
}

// WritePump writes queued frames until the client is closed or a write fails.
func (c *Client) WritePump() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("websocket write failed", "error", err)
				c.Close()
				return
			}
		}
	}
}

// Close closes the connection once. Reads and writes on it fail afterwards.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Done is closed when the client closes.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
