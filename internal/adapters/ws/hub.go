package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/brianes/pitchscore/pkg/logger"
	"github.com/brianes/pitchscore/pkg/metrics"
)

// Router receives every inbound event together with the session it
// arrived on. Implemented by the application service.
type Router interface {
	Route(ctx context.Context, s Session, event string, data json.RawMessage)
}

// Hub owns every live connection and the room membership keyed by
// totem id. Broadcasts fan out from here.
type Hub struct {
	router   Router
	logger   logger.Logger
	upgrader websocket.Upgrader

	sendBuffer int

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	closed  bool
}

// NewHub builds a hub that routes inbound events to the given router.
func NewHub(router Router, opts ...Option) *Hub {
	h := &Hub{
		router:     router,
		logger:     logger.Get().Named("ws"),
		sendBuffer: defaultSendBuffer,
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		// The server is deployed behind event-floor wifi with totem and
		// judge devices on arbitrary origins.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return h
}

// ServeWS upgrades an HTTP request to a websocket connection and starts
// its read and write pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	c := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.updateConnectionMetrics()

	h.logger.Info(r.Context(), "client connected", logger.String("connID", c.id))

	go c.writePump()
	go c.readPump()
}

// join adds a client to a totem room. Membership is in place before
// join returns, so an ack sent afterwards cannot race a broadcast.
func (h *Hub) join(c *Client, totemID string) {
	h.mu.Lock()
	room, ok := h.rooms[totemID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[totemID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
	h.updateConnectionMetrics()
}

// unregister drops a client from the hub and every room it joined.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for totemID, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, totemID)
		}
	}
	h.mu.Unlock()

	c.close()
	h.updateConnectionMetrics()
	h.logger.Info(context.Background(), "client disconnected", logger.String("connID", c.id))
}

// route hands one inbound event to the application router.
func (h *Hub) route(c *Client, env envelope) {
	h.router.Route(context.Background(), c, env.Event, env.Data)
}

// ToRoom broadcasts an event to every connection in a totem's room.
// The payload is marshaled once and fanned out.
func (h *Hub) ToRoom(totemID, event string, data any) {
	raw, err := marshalEnvelope(event, data)
	if err != nil {
		h.logger.Error(context.Background(), "marshal broadcast event",
			logger.String("event", event),
			logger.Error(err),
		)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[totemID]))
	for c := range h.rooms[totemID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.enqueue(event, raw)
	}
	metrics.RecordEventBroadcast(event)
}

// ToAll broadcasts an event to every live connection regardless of
// room membership.
func (h *Hub) ToAll(event string, data any) {
	raw, err := marshalEnvelope(event, data)
	if err != nil {
		h.logger.Error(context.Background(), "marshal broadcast event",
			logger.String("event", event),
			logger.Error(err),
		)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.enqueue(event, raw)
	}
	metrics.RecordEventBroadcast(event)
}

// ActiveJudges returns the sorted unique judge ids currently connected
// to the totem's room.
func (h *Hub) ActiveJudges(totemID string) []string {
	h.mu.RLock()
	seen := make(map[string]struct{})
	for c := range h.rooms[totemID] {
		if c.Role() == RoleJudge {
			if id := c.JudgeID(); id != "" {
				seen[id] = struct{}{}
			}
		}
	}
	h.mu.RUnlock()

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// updateConnectionMetrics refreshes the per-role connection gauges and
// the active room count.
func (h *Hub) updateConnectionMetrics() {
	h.mu.RLock()
	counts := map[Role]int{RoleTotem: 0, RoleJudge: 0, RoleUnknown: 0}
	for c := range h.clients {
		counts[c.Role()]++
	}
	rooms := len(h.rooms)
	h.mu.RUnlock()

	metrics.UpdateConnections(string(RoleTotem), counts[RoleTotem])
	metrics.UpdateConnections(string(RoleJudge), counts[RoleJudge])
	metrics.UpdateConnections("unidentified", counts[RoleUnknown])
	metrics.UpdateRoomsActive(rooms)
}

// Close stops accepting new connections and closes every live one.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
		_ = c.conn.Close()
	}
	h.updateConnectionMetrics()
}
