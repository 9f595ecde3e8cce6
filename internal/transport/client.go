// internal/transport/client.go
// Realtime channel to the backend. One connection per session; a read pump
// fans events into the registered handlers and a write pump serializes
// outbound frames.

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Goutam96801/whoami/internal/chat"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var ErrNotConnected = errors.New("socket is not connected")

// Handlers receives decoded realtime events. Nil callbacks are skipped.
// Callbacks run on the read pump goroutine, so arrival order is dispatch
// order.
type Handlers struct {
	OnMessage     func(msg chat.Message)
	OnOnlineUsers func(userIDs []string)
	OnTyping      func(from string, isTyping bool)
	OnDisconnect  func(err error)
}

// Client is a websocket client bound to one authenticated user.
type Client struct {
	socketURL      string
	userID         string
	handlers       Handlers
	maxMessageSize int64
	dialTimeout    time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	send   chan Envelope
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates an unconnected client. Connect establishes the channel.
func NewClient(socketURL, userID string, maxMessageSize int64, dialTimeout time.Duration, handlers Handlers) *Client {
	return &Client{
		socketURL:      socketURL,
		userID:         userID,
		handlers:       handlers,
		maxMessageSize: maxMessageSize,
		dialTimeout:    dialTimeout,
	}
}

// Connect dials the backend and starts the read and write pumps.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("socket already connected")
	}

	u, err := url.Parse(c.socketURL)
	if err != nil {
		return fmt.Errorf("invalid socket url: %w", err)
	}
	q := u.Query()
	q.Set("userId", c.userID)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", u.Host, err)
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.send = make(chan Envelope, 64)
	c.cancel = cancel

	c.wg.Add(2)
	go c.readPump(pumpCtx)
	go c.writePump(pumpCtx)

	log.Printf("Socket connected for user %s", c.userID)
	return nil
}

// Close tears the connection down and waits for the pumps to exit.
// Closing an unconnected client is a no-op.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.cancel = nil
	c.mu.Unlock()

	if conn == nil {
		return
	}

	cancel()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	conn.Close()
	c.wg.Wait()
}

// EmitTyping sends a typing indicator to a peer.
func (c *Client) EmitTyping(to string, isTyping bool) error {
	env, err := NewEnvelope(EventTyping, TypingRequest{To: to, IsTyping: isTyping})
	if err != nil {
		return err
	}
	return c.emit(env)
}

func (c *Client) emit(env Envelope) error {
	c.mu.Lock()
	send := c.send
	connected := c.conn != nil
	c.mu.Unlock()

	if !connected {
		return ErrNotConnected
	}

	select {
	case send <- env:
		return nil
	default:
		return fmt.Errorf("socket send buffer full")
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer c.wg.Done()

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	conn.SetReadLimit(c.maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("Socket read error: %v", err)
				}
				if c.handlers.OnDisconnect != nil {
					c.handlers.OnDisconnect(err)
				}
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("Dropping malformed socket frame: %v", err)
			continue
		}
		c.dispatch(env)
	}
}

// dispatch decodes and routes one inbound event. Payloads that do not decode
// are dropped so a bad frame cannot stall the pump.
func (c *Client) dispatch(env Envelope) {
	switch env.Event {
	case EventNewMessage:
		var msg chat.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			log.Printf("Dropping malformed %s payload: %v", env.Event, err)
			return
		}
		if msg.ID == "" {
			return
		}
		if c.handlers.OnMessage != nil {
			c.handlers.OnMessage(msg)
		}

	case EventOnlineUsers:
		var ids []string
		if err := json.Unmarshal(env.Data, &ids); err != nil {
			log.Printf("Dropping malformed %s payload: %v", env.Event, err)
			return
		}
		if c.handlers.OnOnlineUsers != nil {
			c.handlers.OnOnlineUsers(ids)
		}

	case EventTyping:
		var payload TypingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			log.Printf("Dropping malformed %s payload: %v", env.Event, err)
			return
		}
		if payload.From == "" {
			return
		}
		if c.handlers.OnTyping != nil {
			c.handlers.OnTyping(payload.From, payload.IsTyping)
		}

	default:
		// Unknown events are ignored for forward compatibility.
	}
}

func (c *Client) writePump(ctx context.Context) {
	defer c.wg.Done()

	c.mu.Lock()
	conn := c.conn
	send := c.send
	c.mu.Unlock()
	if conn == nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case env := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				log.Printf("Socket write error: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
