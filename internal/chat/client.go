package chat

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = 54 * time.Second
	// Maximum inbound frame size. Images travel as URLs, not blobs.
	maxMessageSize = 16 * 1024
	// Outgoing frames queued per connection before drops begin.
	sendBufferSize = 256

	// Per-connection inbound rate limit: one event per second sustained,
	// short bursts allowed.
	inboundRPS   = 1
	inboundBurst = 5
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware in front of
	// the HTTP API; the socket itself accepts any origin.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// Client is one live WebSocket connection: the transport half of a
// Participant. Frames are queued on a buffered channel and written by a
// single pump goroutine.
type Client struct {
	connID  string
	conn    *websocket.Conn
	send    chan []byte
	service *Service
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
}

func newClient(connID string, conn *websocket.Conn, service *Service) *Client {
	return &Client{
		connID:  connID,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		service: service,
		limiter: rate.NewLimiter(rate.Limit(inboundRPS), inboundBurst),
	}
}

// ServeWs upgrades an HTTP request to a WebSocket connection and hands
// it to the service as a fresh participant.
func ServeWs(service *Service, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	service.Connect(conn, r.RemoteAddr)
}

// trySend queues a frame without blocking. Reports false if the client
// is closed or its buffer is full; the frame is dropped either way.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		log.Printf("Dropping frame for %s: send buffer full", c.connID)
		return false
	}
}

// close marks the client dead and closes its send channel exactly once.
func (c *Client) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// inboundEvent defers payload decoding until the type is known.
type inboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) readPump() {
	defer func() {
		c.service.Disconnect(c.connID)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection in readPump: %v", err)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("Unexpected WebSocket error from %s: %v", c.connID, err)
			}
			return
		}

		if !c.limiter.Allow() {
			log.Printf("Rate limit exceeded for %s; discarding event", c.connID)
			continue
		}

		c.handleEvent(raw)
	}
}

// handleEvent validates one inbound frame at the boundary and dispatches
// it into the core. Malformed input earns the sender an error event;
// nothing invalid reaches the service.
func (c *Client) handleEvent(raw []byte) {
	var env inboundEvent
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError("invalid event payload")
		return
	}

	switch env.Type {
	case EventUpdateSettings:
		var settings Settings
		if err := json.Unmarshal(env.Data, &settings); err != nil {
			c.sendError("invalid settings payload")
			return
		}
		c.service.UpdateSettings(c.connID, settings)

	case EventSendMessage:
		var msg SendMessagePayload
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.sendError("invalid message payload")
			return
		}
		if strings.TrimSpace(msg.Message) == "" && msg.Image == "" {
			c.sendError("message is empty")
			return
		}
		c.service.SendMessage(c.connID, msg)

	default:
		c.sendError("unknown event type: " + env.Type)
	}
}

func (c *Client) sendError(message string) {
	if payload, ok := marshalEvent(Event{Type: EventError, Data: message}); ok {
		c.trySend(payload)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection in writePump: %v", err)
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error writing to %s: %v", c.connID, err)
				}
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// isExpectedCloseError checks if an error is expected during connection
// closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
