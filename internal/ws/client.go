package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
)

const (
	// writeWait is the per-send completion budget.
	writeWait = 20 * time.Second
	// firstFrameWait is how long an authenticated connection may stay silent
	// before the first inbound frame; idle handshakes are closed.
	firstFrameWait = 30 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	// maxFrameSize caps inbound frames.
	maxFrameSize = 8 << 10
	// sendBufferBytes caps the bytes queued for one connection; a client that
	// falls further behind than this is closed rather than buffered forever.
	sendBufferBytes = 512 << 10
	sendQueueLen    = 256
)

// Client is a single authenticated WebSocket connection. The principal bound
// at handshake lives in userID for the connection's lifetime.
// Lifecycle: NewClient -> Start(ctx, cancel) -> [readPump, writePump] -> Close -> Wait.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string

	// queued tracks bytes sitting in send for the outbound buffer cap.
	queued atomic.Int64

	// done guards enqueue against a closed client.
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
	wg     sync.WaitGroup
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendQueueLen),
		userID: userID,
		done:   make(chan struct{}),
	}
}

// Start launches both pumps. ctx controls pump lifetime; cancel is stored for
// Close().
func (c *Client) Start(ctx context.Context, cancel context.CancelFunc) {
	c.cancel = cancel
	c.wg.Add(2)
	go c.writePump(ctx)
	go c.readPump(ctx)
}

// Wait blocks until both pump goroutines have exited.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Close signals the client to stop. Safe to call multiple times from any
// goroutine.
func (c *Client) Close() {
	c.once.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		close(c.done)
		if c.conn != nil {
			// Force both pumps to unblock (ReadMessage / WriteMessage error out).
			c.conn.Close()
		}
	})
}

// enqueue marshals the frame and queues it for the write pump. A full queue
// or a breached byte cap closes the connection: slow consumers are dropped,
// not buffered without bound.
func (c *Client) enqueue(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		logger.Errorf("ws marshal frame user=%s: %v", c.userID, err)
		return
	}
	if c.queued.Add(int64(len(data))) > sendBufferBytes {
		c.queued.Add(-int64(len(data)))
		logger.Errorf("ws send buffer over %d bytes, closing slow client user=%s", sendBufferBytes, c.userID)
		c.Close()
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
		c.queued.Add(-int64(len(data)))
	default:
		c.queued.Add(-int64(len(data)))
		logger.Errorf("ws send queue full, closing slow client user=%s", c.userID)
		c.Close()
	}
}

// readPump reads envelopes from the connection and hands them to the hub in
// receipt order. Exits on read error (triggered by conn.Close from Close()).
func (c *Client) readPump(ctx context.Context) {
	defer c.wg.Done()
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	// Grace period for the first frame; after that the pong cycle keeps the
	// deadline moving.
	if err := c.conn.SetReadDeadline(time.Now().Add(firstFrameWait)); err != nil {
		logger.Errorf("ws set read deadline user=%s: %v", c.userID, err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("ws read error user=%s: %v", c.userID, err)
			}
			return
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.Errorf("ws unmarshal error user=%s: %v", c.userID, err)
			continue
		}

		c.hub.Dispatch(ctx, c, env)
	}
}

// writePump writes queued frames and pings. Exits on ctx cancellation or
// write error.
func (c *Client) writePump(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			if err := c.conn.WriteMessage(websocket.CloseMessage, nil); err != nil {
				logger.Errorf("ws close message user=%s: %v", c.userID, err)
			}
			return
		case data := <-c.send:
			c.queued.Add(-int64(len(data)))
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Errorf("ws set write deadline user=%s: %v", c.userID, err)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Errorf("ws set write deadline user=%s: %v", c.userID, err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
