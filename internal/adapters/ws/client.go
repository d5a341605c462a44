package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brianes/pitchscore/pkg/logger"
	"github.com/brianes/pitchscore/pkg/metrics"
)

// Connection tuning constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Role identifies what kind of client a connection claims to be.
type Role string

// Connection roles.
const (
	RoleUnknown Role = ""
	RoleTotem   Role = "totem"
	RoleJudge   Role = "judge"
)

// Session is the surface the event router sees for one connection.
type Session interface {
	// ID returns the connection's unique id.
	ID() string

	// Send queues an event for this connection only.
	Send(event string, data any)

	// Join adds the connection to the room keyed by totemID. The hub
	// guarantees membership before Join returns, so an acknowledgment
	// sent afterwards proves the join completed.
	Join(totemID string)

	// Identify records the connection's claimed role and ids.
	Identify(role Role, totemID, judgeID string)
}

// envelope is the wire framing in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is one live websocket connection.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	mu      sync.RWMutex
	role    Role
	totemID string
	judgeID string

	closeOnce sync.Once
}

// ID returns the connection's unique id.
func (c *Client) ID() string { return c.id }

// Identify records the connection's claimed role and ids.
func (c *Client) Identify(role Role, totemID, judgeID string) {
	c.mu.Lock()
	c.role = role
	c.totemID = totemID
	c.judgeID = judgeID
	c.mu.Unlock()
	c.hub.updateConnectionMetrics()
}

// Role returns the connection's claimed role.
func (c *Client) Role() Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// JudgeID returns the judge id claimed on connect, if any.
func (c *Client) JudgeID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.judgeID
}

// Join adds the connection to the totem's room.
func (c *Client) Join(totemID string) {
	c.hub.join(c, totemID)
}

// Send queues an event for this connection. A client whose buffer is
// full is dropped rather than blocking the hub.
func (c *Client) Send(event string, data any) {
	raw, err := marshalEnvelope(event, data)
	if err != nil {
		c.hub.logger.Error(context.Background(), "marshal outbound event",
			logger.String("event", event),
			logger.Error(err),
		)
		return
	}
	c.enqueue(event, raw)
}

// enqueue queues one frame without ever blocking the caller. The send
// channel is never closed, so a broadcast holding a stale member
// snapshot cannot panic against a concurrent disconnect; a dropped
// client's frames are simply discarded here.
func (c *Client) enqueue(event string, raw []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- raw:
	case <-c.done:
	default:
		c.hub.logger.Warn(context.Background(), "dropping slow client",
			logger.String("connID", c.id),
			logger.String("event", event),
		)
		c.close()
	}
}

func marshalEnvelope(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Data: payload})
}

// close signals the write pump to finish. send stays open.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump consumes inbound frames and routes them until the connection
// drops. Runs on the connection's own goroutine.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn(context.Background(), "connection closed unexpectedly",
					logger.String("connID", c.id),
					logger.Error(err),
				)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.hub.logger.Warn(context.Background(), "malformed frame",
				logger.String("connID", c.id),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordEventReceived(env.Event)
		c.hub.route(c, env)
	}
}

// writePump flushes the send buffer and keeps the connection alive with
// pings. Runs on its own goroutine; exits when the client is closed.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case raw := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
