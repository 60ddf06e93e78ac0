// Package realtime pushes server events to users over websocket connections.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventStatus = "status"

	StatusOnline  = "online"
	StatusOffline = "offline"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Event is the envelope of every message written to a client.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// StatusChange tells friends that a user came online or went offline.
type StatusChange struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// FriendLister resolves whom to tell about a user's presence.
type FriendLister interface {
	GetFriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(ev Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(ev)
}

func (c *client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Hub tracks the live connections of every user. A user may hold several.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	friends FriendLister
}

// NewHub creates a Hub. friends may be nil, in which case presence is not broadcast.
func NewHub(friends FriendLister) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		friends: friends,
	}
}

// Serve owns conn until the peer disconnects or ctx is done.
func (h *Hub) Serve(ctx context.Context, userID string, conn *websocket.Conn) {
	c := &client{conn: conn}
	if h.register(userID, c) {
		h.broadcastStatus(ctx, userID, StatusOnline)
	}
	logrus.WithField("userID", userID).Info("WebSocket connected")

	done := make(chan struct{})
	go h.keepAlive(ctx, c, done)

	defer func() {
		close(done)
		conn.Close()
		if h.unregister(userID, c) {
			h.broadcastStatus(context.Background(), userID, StatusOffline)
		}
		logrus.WithField("userID", userID).Info("WebSocket disconnected")
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients have nothing to say; reading keeps control frames flowing and detects close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).WithField("userID", userID).Warn("WebSocket read error")
			}
			return
		}
	}
}

func (h *Hub) keepAlive(ctx context.Context, c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			c.conn.Close()
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

// register reports whether this is the user's first connection.
func (h *Hub) register(userID string, c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[userID]
	if !ok {
		conns = make(map[*client]struct{})
		h.clients[userID] = conns
	}
	conns[c] = struct{}{}
	return !ok
}

// unregister reports whether the user has no connections left.
func (h *Hub) unregister(userID string, c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[userID]
	if !ok {
		return false
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, userID)
		return true
	}
	return false
}

func (h *Hub) snapshot(userID string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := h.clients[userID]
	out := make([]*client, 0, len(conns))
	for c := range conns {
		out = append(out, c)
	}
	return out
}

// Publish writes an event to every connection of the user. Offline users are skipped.
func (h *Hub) Publish(userID string, eventType string, data interface{}) {
	ev := Event{Type: eventType, Data: data}
	for _, c := range h.snapshot(userID) {
		if err := c.write(ev); err != nil {
			logrus.WithError(err).WithField("userID", userID).Warn("Failed to push event")
			c.conn.Close()
		}
	}
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// OnlineCount is the number of users with a live connection.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close drops every connection. Serve loops return as their reads fail.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.clients {
		for c := range conns {
			c.writeMu.Lock()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			c.writeMu.Unlock()
			c.conn.Close()
		}
	}
}

func (h *Hub) broadcastStatus(ctx context.Context, userID, status string) {
	if h.friends == nil {
		return
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return
	}
	friendIDs, err := h.friends.GetFriendIDs(ctx, id)
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Warn("Failed to load friends for presence")
		return
	}
	change := StatusChange{UserID: userID, Status: status}
	for _, fid := range friendIDs {
		h.Publish(fid.Hex(), EventStatus, change)
	}
}
