package service

import (
	"context"
	"errors"
	"testing"

	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/storage"
)

func seedDirectChat(t *testing.T, env *testEnv, userID, otherID string) string {
	t.Helper()

	chat, _, err := env.svc.CreateChat(context.Background(), userID, []string{otherID}, "")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	return chat.ID
}

func TestCreateChat_DirectIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first, exists, err := env.svc.CreateChat(ctx, "a", []string{"b"}, "")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if exists {
		t.Error("CreateChat() exists = true on first creation")
	}

	// Same pair from the other side reuses the chat.
	second, exists, err := env.svc.CreateChat(ctx, "b", []string{"a"}, "")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if !exists {
		t.Error("CreateChat() exists = false for an existing pair")
	}
	if second.ID != first.ID {
		t.Errorf("CreateChat() returned chat %s, want %s", second.ID, first.ID)
	}
	if len(env.storage.chats) != 1 {
		t.Errorf("stored chats = %d, want 1", len(env.storage.chats))
	}
}

func TestCreateChat_Group(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	chat, exists, err := env.svc.CreateChat(ctx, "a", []string{"b", "c"}, "weekend plans")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if exists {
		t.Error("CreateChat() exists = true for a new group")
	}
	if chat.Type != models.ChatGroup || chat.Name != "weekend plans" {
		t.Errorf("CreateChat() chat = %+v", chat)
	}
	if len(chat.Participants) != 3 {
		t.Errorf("participants = %d, want 3 (caller included)", len(chat.Participants))
	}
}

func TestCreateChat_BroadcastsNewChat(t *testing.T) {
	env := newTestEnv()

	chat, _, err := env.svc.CreateChat(context.Background(), "a", []string{"b"}, "")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	if len(env.hub.toUsers) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(env.hub.toUsers))
	}

	call := env.hub.toUsers[0]
	if call.event.Type != models.EventChatNew {
		t.Errorf("event type = %s, want %s", call.event.Type, models.EventChatNew)
	}
	got, ok := call.event.Data.(models.Chat)
	if !ok || got.ID != chat.ID {
		t.Errorf("event data = %+v, want chat %s", call.event.Data, chat.ID)
	}
	if len(call.userIDs) != 2 {
		t.Errorf("broadcast recipients = %v, want both participants", call.userIDs)
	}

	// Reusing an existing pair announces nothing.
	if _, _, err = env.svc.CreateChat(context.Background(), "b", []string{"a"}, ""); err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if len(env.hub.toUsers) != 1 {
		t.Errorf("broadcasts = %d, want 1 after reuse", len(env.hub.toUsers))
	}
}

func TestCreateChat_Validation(t *testing.T) {
	tests := []struct {
		name         string
		participants []string
		chatName     string
		wantErr      error
	}{
		{
			name:         "no participants",
			participants: nil,
			wantErr:      ErrNoParticipants,
		},
		{
			name:         "group without name",
			participants: []string{"b", "c"},
			chatName:     "",
			wantErr:      ErrNameRequired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()

			_, _, err := env.svc.CreateChat(context.Background(), "a", tt.participants, tt.chatName)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateChat() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	chatID := seedDirectChat(t, env, "a", "b")

	before := len(env.hub.toUsers)

	msg, err := env.svc.SendMessage(ctx, "a", chatID, "ping", "", "")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.ID == "" || msg.Content != "ping" || msg.Read {
		t.Errorf("SendMessage() msg = %+v", msg)
	}

	if len(env.hub.toUsers) != before+1 {
		t.Fatalf("broadcasts = %d, want %d", len(env.hub.toUsers), before+1)
	}

	call := env.hub.toUsers[len(env.hub.toUsers)-1]
	if call.event.Type != models.EventMessageNew {
		t.Errorf("event type = %s, want %s", call.event.Type, models.EventMessageNew)
	}
	if len(call.userIDs) != 2 {
		t.Errorf("broadcast recipients = %v, want both participants", call.userIDs)
	}
}

func TestSendMessage_EmptyContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		fileUrl string
		wantErr error
	}{
		{name: "empty", content: "", wantErr: ErrEmptyMessage},
		{name: "whitespace only", content: "   \n\t", wantErr: ErrEmptyMessage},
		{name: "attachment without text", content: "", fileUrl: "https://s3.local/a/f.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			chatID := seedDirectChat(t, env, "a", "b")

			_, err := env.svc.SendMessage(context.Background(), "a", chatID, tt.content, tt.fileUrl, models.FileImage)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("SendMessage() error = %v", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SendMessage() error = %v, want %v", err, tt.wantErr)
			}
			if env.storage.saveMessageCalls != 0 {
				t.Error("SendMessage() hit storage for a rejected message")
			}
		})
	}
}

func TestSendMessage_NotParticipant(t *testing.T) {
	env := newTestEnv()
	chatID := seedDirectChat(t, env, "a", "b")

	_, err := env.svc.SendMessage(context.Background(), "intruder", chatID, "hi", "", "")
	if !errors.Is(err, storage.ErrNotParticipant) {
		t.Errorf("SendMessage() error = %v, want %v", err, storage.ErrNotParticipant)
	}
}

func TestReadMessages(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	chatID := seedDirectChat(t, env, "a", "b")

	if _, err := env.svc.SendMessage(ctx, "a", chatID, "one", "", ""); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if _, err := env.svc.SendMessage(ctx, "a", chatID, "two", "", ""); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	chats, err := env.svc.GetUserChats(ctx, "b")
	if err != nil {
		t.Fatalf("GetUserChats() error = %v", err)
	}
	if chats[0].UnreadCount != 2 {
		t.Errorf("UnreadCount before read = %d, want 2", chats[0].UnreadCount)
	}

	if err = env.svc.ReadMessages(ctx, "b", chatID); err != nil {
		t.Fatalf("ReadMessages() error = %v", err)
	}

	chats, err = env.svc.GetUserChats(ctx, "b")
	if err != nil {
		t.Fatalf("GetUserChats() error = %v", err)
	}
	if chats[0].UnreadCount != 0 {
		t.Errorf("UnreadCount after read = %d, want 0", chats[0].UnreadCount)
	}
}

func TestReadMessages_NotParticipant(t *testing.T) {
	env := newTestEnv()
	chatID := seedDirectChat(t, env, "a", "b")

	err := env.svc.ReadMessages(context.Background(), "intruder", chatID)
	if !errors.Is(err, storage.ErrNotParticipant) {
		t.Errorf("ReadMessages() error = %v, want %v", err, storage.ErrNotParticipant)
	}
}

func TestGetUserChats_DerivesLastMessage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	chatID := seedDirectChat(t, env, "a", "b")

	if _, err := env.svc.SendMessage(ctx, "a", chatID, "first", "", ""); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if _, err := env.svc.SendMessage(ctx, "b", chatID, "latest", "", ""); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	chats, err := env.svc.GetUserChats(ctx, "a")
	if err != nil {
		t.Fatalf("GetUserChats() error = %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("chats = %d, want 1", len(chats))
	}
	if chats[0].LastMessage == nil || chats[0].LastMessage.Content != "latest" {
		t.Errorf("LastMessage = %+v, want content %q", chats[0].LastMessage, "latest")
	}
	if chats[0].UnreadCount != 1 {
		t.Errorf("UnreadCount = %d, want 1 (own messages never count)", chats[0].UnreadCount)
	}
}
