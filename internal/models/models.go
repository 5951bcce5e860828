package models

import "time"

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusAway, StatusBusy:
		return true
	}
	return false
}

type ChatType string

const (
	ChatDirect ChatType = "direct"
	ChatGroup  ChatType = "group"
)

type FileType string

const (
	FileImage    FileType = "image"
	FileDocument FileType = "document"
	FileVideo    FileType = "video"
)

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name"`
	AvatarUrl   string    `json:"avatar_url"`
	Status      Status    `json:"status"`
	LastActive  time.Time `json:"last_active"`
}

type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	FileUrl   string    `json:"file_url,omitempty"`
	FileType  FileType  `json:"file_type,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type Chat struct {
	ID           string    `json:"id"`
	Type         ChatType  `json:"type"`
	Name         string    `json:"name,omitempty"`
	Participants []User    `json:"participants"`
	Messages     []Message `json:"messages"`
	LastMessage  *Message  `json:"last_message,omitempty"`
	UnreadCount  int       `json:"unread_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Upload carries one attachment payload from the request to object storage.
type Upload struct {
	OwnerID     string
	Name        string
	ContentType string
	Data        []byte
}

type Attachment struct {
	Url  string   `json:"url"`
	Type FileType `json:"type"`
}

// Event is what the realtime feed pushes to connected clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const (
	EventMessageNew = "message:new"
	EventChatNew    = "chat:new"
	EventPresence   = "presence"
)

// PresenceUpdate is the payload of an EventPresence event.
type PresenceUpdate struct {
	UserID     string    `json:"user_id"`
	Status     Status    `json:"status"`
	LastActive time.Time `json:"last_active"`
}
