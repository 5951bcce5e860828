package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/parleychat/parley/internal/feed"
	"github.com/parleychat/parley/internal/models"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// dialHub spins up a server that registers every connection under userID
// and returns a connected client-side conn.
func dialHub(t *testing.T, hub *Hub, userID string, fd *feed.Feed) *websocket.Conn {
	t.Helper()

	ready := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}

		readCtx := conn.CloseRead(r.Context())
		client := hub.AddClient(userID, conn, fd)
		defer hub.RemoveClient(client)
		close(ready)

		<-readCtx.Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	<-ready

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var ev wireEvent
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	return ev
}

func TestHub_BroadcastToUsers(t *testing.T) {
	hub := NewHub()
	fd := feed.New("b", []models.Chat{{ID: "c1"}})
	conn := dialHub(t, hub, "b", fd)

	if !hub.IsConnected("b") {
		t.Fatal("IsConnected() = false after connect")
	}

	msg := models.Message{ID: "m1", ChatID: "c1", SenderID: "a", Content: "ping"}
	hub.BroadcastToUsers([]string{"a", "b"}, models.Event{
		Type: models.EventMessageNew,
		Data: msg,
	})

	ev := readEvent(t, conn)
	if ev.Type != models.EventMessageNew {
		t.Errorf("event type = %s, want %s", ev.Type, models.EventMessageNew)
	}

	var got models.Message
	if err := json.Unmarshal(ev.Data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.ID != "m1" || got.Content != "ping" {
		t.Errorf("message = %+v", got)
	}

	if fd.UnreadCount("c1") != 1 {
		t.Errorf("UnreadCount = %d, want 1 after delivery", fd.UnreadCount("c1"))
	}
}

func TestHub_DuplicateMessageDropped(t *testing.T) {
	hub := NewHub()
	fd := feed.New("b", []models.Chat{{ID: "c1"}})
	conn := dialHub(t, hub, "b", fd)

	msg := models.Message{ID: "m1", ChatID: "c1", SenderID: "a", Content: "ping"}
	ev := models.Event{Type: models.EventMessageNew, Data: msg}

	hub.BroadcastToUsers([]string{"b"}, ev)
	hub.BroadcastToUsers([]string{"b"}, ev)

	// A presence event behind the duplicate proves the repeat was dropped
	// rather than still in flight.
	hub.Broadcast(models.Event{
		Type: models.EventPresence,
		Data: models.PresenceUpdate{UserID: "a", Status: models.StatusOnline},
	})

	first := readEvent(t, conn)
	if first.Type != models.EventMessageNew {
		t.Fatalf("first event type = %s, want %s", first.Type, models.EventMessageNew)
	}

	second := readEvent(t, conn)
	if second.Type != models.EventPresence {
		t.Errorf("second event type = %s, want %s (duplicate must not be written)", second.Type, models.EventPresence)
	}

	if fd.UnreadCount("c1") != 1 {
		t.Errorf("UnreadCount = %d, want 1 after duplicate delivery", fd.UnreadCount("c1"))
	}
}

func TestHub_NewChatThenFirstMessage(t *testing.T) {
	hub := NewHub()
	// b connected before the chat existed, so the snapshot is empty.
	fd := feed.New("b", nil)
	conn := dialHub(t, hub, "b", fd)

	chat := models.Chat{ID: "c1", Type: models.ChatDirect, Participants: []models.User{{ID: "a"}, {ID: "b"}}}
	hub.BroadcastToUsers([]string{"a", "b"}, models.Event{Type: models.EventChatNew, Data: chat})
	hub.BroadcastToUsers([]string{"a", "b"}, models.Event{
		Type: models.EventMessageNew,
		Data: models.Message{ID: "m1", ChatID: "c1", SenderID: "a", Content: "hello"},
	})

	first := readEvent(t, conn)
	if first.Type != models.EventChatNew {
		t.Fatalf("first event type = %s, want %s", first.Type, models.EventChatNew)
	}

	second := readEvent(t, conn)
	if second.Type != models.EventMessageNew {
		t.Fatalf("second event type = %s, want %s (first message in a fresh chat must reach the wire)",
			second.Type, models.EventMessageNew)
	}

	if fd.UnreadCount("c1") != 1 {
		t.Errorf("UnreadCount = %d, want 1", fd.UnreadCount("c1"))
	}
}

func TestHub_BroadcastSkipsOtherUsers(t *testing.T) {
	hub := NewHub()
	fd := feed.New("b", []models.Chat{{ID: "c1"}})
	conn := dialHub(t, hub, "b", fd)

	hub.BroadcastToUsers([]string{"someone-else"}, models.Event{
		Type: models.EventMessageNew,
		Data: models.Message{ID: "m1", ChatID: "c1", SenderID: "a", Content: "not for b"},
	})
	hub.Broadcast(models.Event{
		Type: models.EventPresence,
		Data: models.PresenceUpdate{UserID: "a", Status: models.StatusAway},
	})

	ev := readEvent(t, conn)
	if ev.Type != models.EventPresence {
		t.Errorf("event type = %s, want %s (targeted event must not leak)", ev.Type, models.EventPresence)
	}
}

func TestHub_IsConnected(t *testing.T) {
	hub := NewHub()

	if hub.IsConnected("nobody") {
		t.Error("IsConnected() = true for a user that never connected")
	}
}
