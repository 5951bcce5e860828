package service

import (
	"context"
	"slices"
	"time"

	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/storage"
	"github.com/parleychat/parley/pkg/jwt"
)

type tokenRecord struct {
	userID    string
	purpose   string
	expiresAt time.Time
}

// fakeStorage keeps everything in maps so the service can be exercised
// without a database.
type fakeStorage struct {
	users  map[string]models.User
	hashes map[string]string
	chats  map[string]models.Chat
	tokens map[string]tokenRecord

	saveMessageCalls int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		users:  make(map[string]models.User),
		hashes: make(map[string]string),
		chats:  make(map[string]models.Chat),
		tokens: make(map[string]tokenRecord),
	}
}

func (f *fakeStorage) SaveUser(_ context.Context, user models.User, passwordHash string) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return storage.ErrUserAlreadyExists
		}
		if u.DisplayName == user.DisplayName {
			return storage.ErrNameTaken
		}
	}

	f.users[user.ID] = user
	f.hashes[user.ID] = passwordHash

	return nil
}

func (f *fakeStorage) GetUser(_ context.Context, id string) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return user, nil
}

func (f *fakeStorage) GetUserByEmail(_ context.Context, email string) (models.User, string, error) {
	for id, u := range f.users {
		if u.Email == email {
			return u, f.hashes[id], nil
		}
	}

	return models.User{}, "", storage.ErrUserNotFound
}

func (f *fakeStorage) GetPasswordHash(_ context.Context, id string) (string, error) {
	hash, ok := f.hashes[id]
	if !ok {
		return "", storage.ErrUserNotFound
	}

	return hash, nil
}

func (f *fakeStorage) ListUsers(_ context.Context, excludeID string) ([]models.User, error) {
	var users []models.User
	for id, u := range f.users {
		if id != excludeID {
			users = append(users, u)
		}
	}

	return users, nil
}

func (f *fakeStorage) UpdateProfile(
	_ context.Context,
	id, displayName, avatarUrl string,
) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	if displayName != "" {
		user.DisplayName = displayName
	}
	if avatarUrl != "" {
		user.AvatarUrl = avatarUrl
	}
	f.users[id] = user

	return user, nil
}

func (f *fakeStorage) UpdateStatus(
	_ context.Context,
	id string,
	status models.Status,
	lastActive time.Time,
) error {
	user, ok := f.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}

	user.Status = status
	user.LastActive = lastActive
	f.users[id] = user

	return nil
}

func (f *fakeStorage) UpdatePassword(_ context.Context, id, passwordHash string) error {
	if _, ok := f.hashes[id]; !ok {
		return storage.ErrUserNotFound
	}

	f.hashes[id] = passwordHash

	return nil
}

func (f *fakeStorage) SaveChat(
	_ context.Context,
	id string,
	chatType models.ChatType,
	name string,
	participantIDs []string,
) error {
	chat := models.Chat{
		ID:        id,
		Type:      chatType,
		Name:      name,
		CreatedAt: time.Now(),
	}
	for _, pid := range participantIDs {
		chat.Participants = append(chat.Participants, models.User{ID: pid})
	}
	f.chats[id] = chat

	return nil
}

func (f *fakeStorage) FindDirectChat(_ context.Context, userID, otherID string) (string, error) {
	for id, chat := range f.chats {
		if chat.Type != models.ChatDirect || len(chat.Participants) != 2 {
			continue
		}

		ids := []string{chat.Participants[0].ID, chat.Participants[1].ID}
		if slices.Contains(ids, userID) && slices.Contains(ids, otherID) {
			return id, nil
		}
	}

	return "", storage.ErrChatNotFound
}

func (f *fakeStorage) GetChat(_ context.Context, id string) (models.Chat, error) {
	chat, ok := f.chats[id]
	if !ok {
		return models.Chat{}, storage.ErrChatNotFound
	}

	return chat, nil
}

func (f *fakeStorage) GetUserChats(_ context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	for _, chat := range f.chats {
		for _, p := range chat.Participants {
			if p.ID == userID {
				chats = append(chats, chat)
				break
			}
		}
	}

	return chats, nil
}

func (f *fakeStorage) GetParticipantIDs(_ context.Context, chatID string) ([]string, error) {
	chat, ok := f.chats[chatID]
	if !ok {
		return nil, storage.ErrChatNotFound
	}

	ids := make([]string, 0, len(chat.Participants))
	for _, p := range chat.Participants {
		ids = append(ids, p.ID)
	}

	return ids, nil
}

func (f *fakeStorage) IsParticipant(_ context.Context, chatID, userID string) (bool, error) {
	chat, ok := f.chats[chatID]
	if !ok {
		return false, storage.ErrChatNotFound
	}

	for _, p := range chat.Participants {
		if p.ID == userID {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeStorage) SaveMessage(_ context.Context, msg models.Message) error {
	f.saveMessageCalls++

	chat, ok := f.chats[msg.ChatID]
	if !ok {
		return storage.ErrChatNotFound
	}

	chat.Messages = append(chat.Messages, msg)
	f.chats[msg.ChatID] = chat

	return nil
}

func (f *fakeStorage) MarkMessagesRead(_ context.Context, chatID, readerID string) error {
	chat, ok := f.chats[chatID]
	if !ok {
		return storage.ErrChatNotFound
	}

	for i := range chat.Messages {
		if chat.Messages[i].SenderID != readerID {
			chat.Messages[i].Read = true
		}
	}
	f.chats[chatID] = chat

	return nil
}

func (f *fakeStorage) SaveToken(
	_ context.Context,
	token, userID, purpose string,
	expiresAt time.Time,
) error {
	f.tokens[token] = tokenRecord{userID: userID, purpose: purpose, expiresAt: expiresAt}

	return nil
}

func (f *fakeStorage) PopToken(_ context.Context, token, purpose string) (string, error) {
	rec, ok := f.tokens[token]
	if !ok || rec.purpose != purpose {
		return "", storage.ErrTokenNotFound
	}

	delete(f.tokens, token)

	if time.Now().After(rec.expiresAt) {
		return "", storage.ErrTokenNotFound
	}

	return rec.userID, nil
}

func (f *fakeStorage) DeleteUserTokens(_ context.Context, userID, purpose string) error {
	for token, rec := range f.tokens {
		if rec.userID == userID && rec.purpose == purpose {
			delete(f.tokens, token)
		}
	}

	return nil
}

func (f *fakeStorage) tokenCount(purpose string) int {
	count := 0
	for _, rec := range f.tokens {
		if rec.purpose == purpose {
			count++
		}
	}

	return count
}

type fakePresence struct {
	statuses map[string]models.Status
}

func newFakePresence() *fakePresence {
	return &fakePresence{statuses: make(map[string]models.Status)}
}

func (f *fakePresence) SetPresence(
	_ context.Context,
	userID string,
	status models.Status,
	_ time.Time,
) error {
	f.statuses[userID] = status

	return nil
}

func (f *fakePresence) GetPresence(
	_ context.Context,
	userID string,
) (models.Status, time.Time, error) {
	status, ok := f.statuses[userID]
	if !ok {
		return models.StatusOffline, time.Time{}, nil
	}

	return status, time.Now(), nil
}

func (f *fakePresence) ClearPresence(_ context.Context, userID string) error {
	delete(f.statuses, userID)

	return nil
}

type fakeS3 struct {
	uploads []models.Upload
}

func (f *fakeS3) SaveAttachment(_ context.Context, upload models.Upload) (string, error) {
	f.uploads = append(f.uploads, upload)

	return "https://s3.local/" + upload.OwnerID + "/" + upload.Name, nil
}

type sentMail struct {
	to    string
	kind  string
	token string
}

type fakeMailer struct {
	sent []sentMail
}

func (f *fakeMailer) SendInvite(to, _ string) error {
	f.sent = append(f.sent, sentMail{to: to, kind: "invite"})

	return nil
}

func (f *fakeMailer) SendPasswordReset(to, _, token string) error {
	f.sent = append(f.sent, sentMail{to: to, kind: "reset", token: token})

	return nil
}

type broadcastCall struct {
	userIDs []string
	event   models.Event
}

type fakeHub struct {
	toUsers []broadcastCall
	toAll   []models.Event
}

func (f *fakeHub) BroadcastToUsers(userIDs []string, ev models.Event) {
	f.toUsers = append(f.toUsers, broadcastCall{userIDs: userIDs, event: ev})
}

func (f *fakeHub) Broadcast(ev models.Event) {
	f.toAll = append(f.toAll, ev)
}

type testEnv struct {
	svc      *Service
	storage  *fakeStorage
	presence *fakePresence
	s3       *fakeS3
	mailer   *fakeMailer
	hub      *fakeHub
}

func newTestEnv() *testEnv {
	st := newFakeStorage()
	presence := newFakePresence()
	s3 := &fakeS3{}
	mailer := &fakeMailer{}
	hub := &fakeHub{}

	svc := New(st, presence, s3, mailer, hub, jwt.NewManager("test-secret", 15*time.Minute), Config{
		RefreshTTL:         time.Hour,
		ResetTTL:           time.Hour,
		MaxUploadSize:      5 * 1024 * 1024,
		MinPasswordEntropy: 50,
	})

	return &testEnv{
		svc:      svc,
		storage:  st,
		presence: presence,
		s3:       s3,
		mailer:   mailer,
		hub:      hub,
	}
}
