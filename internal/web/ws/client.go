package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Send pings at this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time to wait for the peer to answer our close frame
	closeGracePeriod = time.Second

	// Maximum inbound message size
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

var (
	errClientClosed   = errors.New("client closed")
	errSendBufferFull = errors.New("send buffer full")
)

type closeFrame struct {
	code   int
	reason string
}

// Client is one websocket connection. It implements room.Conn: Send never blocks
// and Close queues a close frame behind any pending messages.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	logger    *slog.Logger

	send     chan []byte
	closeReq chan closeFrame

	closeOnce  sync.Once
	doneOnce   sync.Once
	done       chan struct{}
	writerDone chan struct{}
}

func newClient(conn *websocket.Conn, sessionID string, logger *slog.Logger) *Client {
	return &Client{
		conn:       conn,
		sessionID:  sessionID,
		logger:     logger.With(slog.String("session", sessionID)),
		send:       make(chan []byte, sendBufferSize),
		closeReq:   make(chan closeFrame, 1),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

// Send queues a text message. Messages are dropped when the buffer is full.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn("ws message dropped - client buffer full")
		return errSendBufferFull
	}
}

// Close sends a close frame with the given code and reason. Only the first call has an effect.
func (c *Client) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		c.closeReq <- closeFrame{code: code, reason: reason}
	})
	return nil
}

// writePump owns all writes to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.writerDone)
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				return
			}

		case f := <-c.closeReq:
			c.flush()
			msg := websocket.FormatCloseMessage(f.code, f.reason)
			if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
				return
			}
			select {
			case <-c.done:
			case <-time.After(closeGracePeriod):
			}
			return

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) write(data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// flush writes whatever is still buffered
func (c *Client) flush() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				return
			}
		default:
			return
		}
	}
}

// readPump delivers text messages to handle until the connection fails or closes
func (c *Client) readPump(handle func(payload []byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.Debug("ws read failed", slog.String("error", err.Error()))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handle(payload)
	}
}

// finish stops the writer and waits for the connection to be closed
func (c *Client) finish() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
	<-c.writerDone
}
