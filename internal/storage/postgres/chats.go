package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/storage"
)

func (s *Storage) SaveChat(
	ctx context.Context,
	id string,
	chatType models.ChatType,
	name string,
	participantIDs []string,
) error {
	const op = "storage.postgres.SaveChat"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	var chatName any
	if name != "" {
		chatName = name
	}

	_, err = tx.Exec(
		ctx,
		"INSERT INTO chats (id, type, name) VALUES ($1, $2, $3)",
		id, chatType, chatName,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, userID := range participantIDs {
		_, err = tx.Exec(
			ctx,
			"INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)",
			id, userID,
		)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// FindDirectChat returns the id of the direct chat whose participant set
// is exactly {userID, otherID}, or ErrChatNotFound.
func (s *Storage) FindDirectChat(ctx context.Context, userID, otherID string) (string, error) {
	const op = "storage.postgres.FindDirectChat"

	sql := `SELECT c.id
			FROM chats c
			JOIN chat_participants p1 ON p1.chat_id = c.id AND p1.user_id = $1
			JOIN chat_participants p2 ON p2.chat_id = c.id AND p2.user_id = $2
			WHERE c.type = 'direct'
			  AND (SELECT count(*) FROM chat_participants p WHERE p.chat_id = c.id) = 2
			LIMIT 1`

	var id string
	err := s.db.QueryRow(ctx, sql, userID, otherID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrChatNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetChat(ctx context.Context, id string) (models.Chat, error) {
	const op = "storage.postgres.GetChat"

	var chat models.Chat
	var name *string
	sql := `SELECT id, type, name, created_at FROM chats WHERE id = $1`
	err := s.db.QueryRow(ctx, sql, id).Scan(&chat.ID, &chat.Type, &name, &chat.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Chat{}, fmt.Errorf("%s: %w", op, storage.ErrChatNotFound)
		}
		return models.Chat{}, fmt.Errorf("%s: %w", op, err)
	}
	if name != nil {
		chat.Name = *name
	}

	chat.Participants, err = s.loadParticipants(ctx, chat.ID)
	if err != nil {
		return models.Chat{}, fmt.Errorf("%s: %w", op, err)
	}

	chat.Messages, err = s.loadMessages(ctx, chat.ID)
	if err != nil {
		return models.Chat{}, fmt.Errorf("%s: %w", op, err)
	}

	return chat, nil
}

func (s *Storage) GetUserChats(ctx context.Context, userID string) ([]models.Chat, error) {
	const op = "storage.postgres.GetUserChats"

	sql := `SELECT c.id, c.type, c.name, c.created_at
			FROM chats c
			JOIN chat_participants p ON p.chat_id = c.id
			WHERE p.user_id = $1
			ORDER BY c.created_at`
	rows, err := s.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		var name *string

		err = rows.Scan(&chat.ID, &chat.Type, &name, &chat.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if name != nil {
			chat.Name = *name
		}

		chats = append(chats, chat)
	}
	rows.Close()

	for i := range chats {
		chats[i].Participants, err = s.loadParticipants(ctx, chats[i].ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		chats[i].Messages, err = s.loadMessages(ctx, chats[i].ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return chats, nil
}

func (s *Storage) GetParticipantIDs(ctx context.Context, chatID string) ([]string, error) {
	const op = "storage.postgres.GetParticipantIDs"

	rows, err := s.db.Query(
		ctx,
		"SELECT user_id FROM chat_participants WHERE chat_id = $1",
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string

		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrChatNotFound)
	}

	return ids, nil
}

func (s *Storage) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	const op = "storage.postgres.IsParticipant"

	var exists bool
	sql := `SELECT EXISTS (
				SELECT 1 FROM chat_participants WHERE chat_id = $1 AND user_id = $2
			)`
	err := s.db.QueryRow(ctx, sql, chatID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (s *Storage) loadParticipants(ctx context.Context, chatID string) ([]models.User, error) {
	sql := `SELECT u.id, u.display_name, u.avatar_url, u.status, u.last_active
			FROM profiles u
			JOIN chat_participants p ON p.user_id = u.id
			WHERE p.chat_id = $1
			ORDER BY u.display_name`
	rows, err := s.db.Query(ctx, sql, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User

		err = rows.Scan(&user.ID, &user.DisplayName, &user.AvatarUrl, &user.Status, &user.LastActive)
		if err != nil {
			return nil, err
		}

		users = append(users, user)
	}

	return users, nil
}

func (s *Storage) loadMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	sql := `SELECT id, chat_id, sender_id, content, file_url, file_type, read, created_at
			FROM messages
			WHERE chat_id = $1
			ORDER BY created_at`
	rows, err := s.db.Query(ctx, sql, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message

		err = rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.SenderID,
			&msg.Content,
			&msg.FileUrl,
			&msg.FileType,
			&msg.Read,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		messages = append(messages, msg)
	}

	return messages, nil
}
