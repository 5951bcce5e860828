package ws

import (
	"context"
	"sync"
	"time"

	"github.com/parleychat/parley/internal/feed"
	"github.com/parleychat/parley/internal/models"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type Client struct {
	UserID string
	Conn   *websocket.Conn
	Feed   *feed.Feed
	Send   chan models.Event

	ctx    context.Context
	cancel context.CancelFunc
}

// Hub tracks connected clients per user and fans events out to them.
// A user can hold several connections (tabs, devices) at once.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: map[string]map[*Client]struct{}{},
	}
}

func (h *Hub) AddClient(userID string, conn *websocket.Conn, fd *feed.Feed) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		UserID: userID,
		Conn:   conn,
		Feed:   fd,
		Send:   make(chan models.Event, 64),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	go c.writeLoop()
	go c.keepAliveLoop()

	return c
}

func (h *Hub) RemoveClient(c *Client) {
	c.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}

	_ = c.Conn.Close(websocket.StatusNormalClosure, "bye")
}

// IsConnected reports whether the user has at least one open connection.
func (h *Hub) IsConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID]) > 0
}

// BroadcastToUsers delivers the event to every connection of the given
// users. Message events are first applied to the client's feed; repeat
// deliveries of the same message id are dropped there, so a duplicate
// never reaches the wire.
func (h *Hub) BroadcastToUsers(userIDs []string, ev models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, uid := range userIDs {
		for c := range h.clients[uid] {
			c.deliver(ev)
		}
	}
}

// Broadcast delivers the event to every connected client. Used for
// presence changes, which everyone in the directory sees.
func (h *Hub) Broadcast(ev models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, set := range h.clients {
		for c := range set {
			c.deliver(ev)
		}
	}
}

func (c *Client) deliver(ev models.Event) {
	switch ev.Type {
	case models.EventMessageNew:
		if msg, ok := ev.Data.(models.Message); ok && c.Feed != nil && !c.Feed.ApplyMessage(msg) {
			return
		}
	case models.EventChatNew:
		// Register the chat first, so the first message in it is not
		// treated as belonging to an unknown chat and dropped.
		if chat, ok := ev.Data.(models.Chat); ok && c.Feed != nil {
			c.Feed.AddChat(chat)
		}
	}

	select {
	case c.Send <- ev:
	default:
		// slow client, drop the event; the feed is rebuilt on reconnect
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.Send:
			writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = wsjson.Write(writeCtx, c.Conn, ev)
			cancel()
		}
	}
}

func (c *Client) keepAliveLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.Conn.Ping(pingCtx)
			cancel()
		}
	}
}
