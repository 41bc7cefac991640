package hub

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Channel name helpers. Channels are the addressing scheme of the bus:
// every event is fanned out to exactly one named group.
func UserChannel(userID string) string         { return "user:" + userID }
func PlaylistChannel(playlistID string) string { return "playlist:" + playlistID }
func RoomChannel(roomID string) string         { return "room:" + roomID }

// Client is one live bus connection. UserID stays empty until the connection
// registers or joins a user channel; authentication alone grants no membership.
type Client struct {
	ID         string
	UserID     string // set by register_device (or trusted event payloads, as legacy)
	AuthUserID string // from a verified handshake token, informational only
	Send       chan []byte
}

// Hub owns transient channel memberships and relays events to their subscribers.
// It is the sole arbiter of fan-out; nothing else writes to client send queues.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
	clients  map[string]*Client // connection id -> client
	joined   map[*Client]map[string]struct{}
	log      *zap.Logger
}

// New creates an empty hub.
func New(log *zap.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[*Client]struct{}),
		clients:  make(map[string]*Client),
		joined:   make(map[*Client]map[string]struct{}),
		log:      log,
	}
}

// Register creates a client for a new connection and returns it with a cleanup
// function. Cleanup removes the client from every channel and closes its queue.
func (h *Hub) Register(authUserID string) (*Client, func()) {
	c := &Client{
		ID:         uuid.New().String(),
		AuthUserID: authUserID,
		Send:       make(chan []byte, 256),
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	h.joined[c] = make(map[string]struct{})
	h.mu.Unlock()

	h.log.Info("connection registered", zap.String("connection_id", c.ID))

	cleanup := func() { h.unregister(c) }
	return c, cleanup
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	for ch := range h.joined[c] {
		if m, ok := h.channels[ch]; ok {
			delete(m, c)
			if len(m) == 0 {
				delete(h.channels, ch)
			}
		}
	}
	delete(h.joined, c)
	delete(h.clients, c.ID)
	// Closing under the lock keeps it mutually exclusive with the queue
	// pushes, which all hold the read lock.
	close(c.Send)
	h.mu.Unlock()
	h.log.Info("connection unregistered", zap.String("connection_id", c.ID))
}

// Join adds the client to a named channel. Joining twice is a no-op.
func (h *Hub) Join(c *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.joined[c]; !ok {
		return // already unregistered
	}
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][c] = struct{}{}
	h.joined[c][channel] = struct{}{}
}

// Leave removes the client from a channel.
func (h *Hub) Leave(c *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.channels[channel]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.channels, channel)
		}
	}
	delete(h.joined[c], channel)
}

// Broadcast sends an event to every member of a channel, in hub arrival order.
func (h *Hub) Broadcast(channel, event string, data any) {
	h.broadcast(channel, nil, event, data)
}

// BroadcastExcept sends an event to every member of a channel except one
// (the sender already knows its own state).
func (h *Hub) BroadcastExcept(channel string, except *Client, event string, data any) {
	h.broadcast(channel, except, event, data)
}

func (h *Hub) broadcast(channel string, except *Client, event string, data any) {
	raw, err := Marshal(event, data)
	if err != nil {
		h.log.Warn("marshal event failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.channels[channel] {
		if c != except {
			h.push(c, raw, event)
		}
	}
}

// push queues a frame without blocking; the queue never outlives the read
// lock that guards it against a concurrent unregister.
func (h *Hub) push(c *Client, raw []byte, event string) {
	select {
	case c.Send <- raw:
	default:
		h.log.Warn("send buffer full, dropping event",
			zap.String("connection_id", c.ID), zap.String("event", event))
	}
}

// SendTo sends an event to a single client, dropping it if the client has
// already unregistered.
func (h *Hub) SendTo(c *Client, event string, data any) {
	raw, err := Marshal(event, data)
	if err != nil {
		h.log.Warn("marshal event failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.joined[c]; !ok {
		return
	}
	h.push(c, raw, event)
}

// SendToConnection sends an event to the client with the given connection id,
// if it is still connected. Used for device-targeted play commands.
func (h *Hub) SendToConnection(connectionID, event string, data any) bool {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	h.SendTo(c, event, data)
	return true
}

// ToUser implements the pipeline Emitter: fan-out to all of a user's connections.
func (h *Hub) ToUser(userID, event string, data any) {
	h.Broadcast(UserChannel(userID), event, data)
}

// MemberCount returns the number of clients in a channel (for tests/debugging).
func (h *Hub) MemberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
