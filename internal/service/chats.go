package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parleychat/parley/internal/feed"
	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/storage"
)

// CreateChat starts a direct chat for a single participant or a group
// chat for several. Direct creation is idempotent: an existing chat
// between the same pair is reused and reported with exists = true.
func (s *Service) CreateChat(
	ctx context.Context,
	callerID string,
	participantIDs []string,
	name string,
) (models.Chat, bool, error) {
	const op = "service.CreateChat"

	if len(participantIDs) == 0 {
		return models.Chat{}, false, fmt.Errorf("%s: %w", op, ErrNoParticipants)
	}

	if len(participantIDs) == 1 {
		otherID := participantIDs[0]

		id, err := s.storage.FindDirectChat(ctx, callerID, otherID)
		if err == nil {
			chat, err := s.storage.GetChat(ctx, id)
			if err != nil {
				return models.Chat{}, false, fmt.Errorf("%s: %w", op, err)
			}
			return chat, true, nil
		}
		if !errors.Is(err, storage.ErrChatNotFound) {
			return models.Chat{}, false, fmt.Errorf("%s: %w", op, err)
		}

		chat, err := s.insertChat(ctx, models.ChatDirect, "", []string{callerID, otherID})
		if err != nil {
			return models.Chat{}, false, fmt.Errorf("%s: %w", op, err)
		}
		return chat, false, nil
	}

	if name == "" {
		return models.Chat{}, false, fmt.Errorf("%s: %w", op, ErrNameRequired)
	}

	chat, err := s.insertChat(ctx, models.ChatGroup, name, append([]string{callerID}, participantIDs...))
	if err != nil {
		return models.Chat{}, false, fmt.Errorf("%s: %w", op, err)
	}

	return chat, false, nil
}

func (s *Service) insertChat(
	ctx context.Context,
	chatType models.ChatType,
	name string,
	participantIDs []string,
) (models.Chat, error) {
	id := uuid.NewString()

	err := s.storage.SaveChat(ctx, id, chatType, name, participantIDs)
	if err != nil {
		return models.Chat{}, err
	}

	chat, err := s.storage.GetChat(ctx, id)
	if err != nil {
		return models.Chat{}, err
	}

	// Connected participants learn about the chat right away; their live
	// feeds register it so the first message is not lost.
	if s.hub != nil {
		s.hub.BroadcastToUsers(participantIDs, models.Event{
			Type: models.EventChatNew,
			Data: chat,
		})
	}

	return chat, nil
}

// BuildFeed loads the caller's chats into a fresh feed snapshot. Last
// message and unread counter come out derived from the loaded read
// flags.
func (s *Service) BuildFeed(ctx context.Context, userID string) (*feed.Feed, error) {
	const op = "service.BuildFeed"

	chats, err := s.storage.GetUserChats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return feed.New(userID, chats), nil
}

func (s *Service) GetUserChats(ctx context.Context, userID string) ([]models.Chat, error) {
	const op = "service.GetUserChats"

	fd, err := s.BuildFeed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return fd.Chats(), nil
}

func (s *Service) SendMessage(
	ctx context.Context,
	senderID string,
	chatID string,
	content string,
	fileUrl string,
	fileType models.FileType,
) (models.Message, error) {
	const op = "service.SendMessage"

	if strings.TrimSpace(content) == "" && fileUrl == "" {
		return models.Message{}, fmt.Errorf("%s: %w", op, ErrEmptyMessage)
	}

	ok, err := s.storage.IsParticipant(ctx, chatID, senderID)
	if err != nil {
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return models.Message{}, fmt.Errorf("%s: %w", op, storage.ErrNotParticipant)
	}

	msg := models.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		FileUrl:   fileUrl,
		FileType:  fileType,
		Read:      false,
		CreatedAt: time.Now(),
	}

	if err = s.storage.SaveMessage(ctx, msg); err != nil {
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.hub != nil {
		ids, err := s.storage.GetParticipantIDs(ctx, chatID)
		if err != nil {
			return models.Message{}, fmt.Errorf("%s: %w", op, err)
		}

		s.hub.BroadcastToUsers(ids, models.Event{
			Type: models.EventMessageNew,
			Data: msg,
		})
	}

	return msg, nil
}

func (s *Service) ReadMessages(ctx context.Context, userID, chatID string) error {
	const op = "service.ReadMessages"

	ok, err := s.storage.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotParticipant)
	}

	if err = s.storage.MarkMessagesRead(ctx, chatID, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
