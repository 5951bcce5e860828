package feed

import (
	"sort"
	"sync"
	"time"

	"github.com/parleychat/parley/internal/models"
)

// Feed is one user's in-memory view of their chat list: ordered
// messages, last message and a derived unread counter per chat. It is
// rebuilt from storage on connect and then patched by realtime events.
// Message application is idempotent by message id, so a local echo and
// a broadcast of the same send collapse into one entry.
type Feed struct {
	mu    sync.Mutex
	owner string
	chats map[string]*chatState
}

type chatState struct {
	chat models.Chat
	seen map[string]struct{}
}

func New(owner string, chats []models.Chat) *Feed {
	f := &Feed{
		owner: owner,
		chats: make(map[string]*chatState, len(chats)),
	}

	for _, chat := range chats {
		st := &chatState{
			chat: chat,
			seen: make(map[string]struct{}, len(chat.Messages)),
		}
		for _, msg := range chat.Messages {
			st.seen[msg.ID] = struct{}{}
		}
		derive(&st.chat, owner)
		f.chats[chat.ID] = st
	}

	return f
}

func (f *Feed) Owner() string {
	return f.owner
}

// AddChat registers a chat the owner just joined. Replaces any stale
// snapshot of the same chat.
func (f *Feed) AddChat(chat models.Chat) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := &chatState{
		chat: chat,
		seen: make(map[string]struct{}, len(chat.Messages)),
	}
	for _, msg := range chat.Messages {
		st.seen[msg.ID] = struct{}{}
	}
	derive(&st.chat, f.owner)
	f.chats[chat.ID] = st
}

// ApplyMessage merges one realtime message event into the snapshot.
// Returns false when the chat is unknown or the message was already
// applied.
func (f *Feed) ApplyMessage(msg models.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.chats[msg.ChatID]
	if !ok {
		return false
	}
	if _, ok := st.seen[msg.ID]; ok {
		return false
	}

	st.seen[msg.ID] = struct{}{}
	st.chat.Messages = append(st.chat.Messages, msg)
	last := msg
	st.chat.LastMessage = &last
	if msg.SenderID != f.owner && !msg.Read {
		st.chat.UnreadCount++
	}

	return true
}

// MarkRead flips every message in the chat to read and zeroes the
// counter, mirroring the persisted read receipts.
func (f *Feed) MarkRead(chatID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.chats[chatID]
	if !ok {
		return
	}

	for i := range st.chat.Messages {
		st.chat.Messages[i].Read = true
	}
	st.chat.UnreadCount = 0
	if st.chat.LastMessage != nil {
		st.chat.LastMessage.Read = true
	}
}

func (f *Feed) Chat(chatID string) (models.Chat, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.chats[chatID]
	if !ok {
		return models.Chat{}, false
	}

	return cloneChat(st.chat), true
}

// Chats returns the snapshot ordered by last activity, newest first.
func (f *Feed) Chats() []models.Chat {
	f.mu.Lock()
	defer f.mu.Unlock()

	chats := make([]models.Chat, 0, len(f.chats))
	for _, st := range f.chats {
		chats = append(chats, cloneChat(st.chat))
	}

	sort.Slice(chats, func(i, j int) bool {
		return lastActivity(chats[i]).After(lastActivity(chats[j]))
	})

	return chats
}

func (f *Feed) UnreadCount(chatID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.chats[chatID]
	if !ok {
		return 0
	}

	return st.chat.UnreadCount
}

// derive recomputes last message and unread counter from the message
// list itself.
func derive(chat *models.Chat, owner string) {
	chat.LastMessage = nil
	chat.UnreadCount = 0

	if len(chat.Messages) > 0 {
		last := chat.Messages[len(chat.Messages)-1]
		chat.LastMessage = &last
	}
	for _, msg := range chat.Messages {
		if !msg.Read && msg.SenderID != owner {
			chat.UnreadCount++
		}
	}
}

func lastActivity(chat models.Chat) time.Time {
	if chat.LastMessage != nil {
		return chat.LastMessage.CreatedAt
	}
	return chat.CreatedAt
}

func cloneChat(chat models.Chat) models.Chat {
	out := chat
	out.Messages = append([]models.Message(nil), chat.Messages...)
	out.Participants = append([]models.User(nil), chat.Participants...)
	if chat.LastMessage != nil {
		last := *chat.LastMessage
		out.LastMessage = &last
	}
	return out
}
