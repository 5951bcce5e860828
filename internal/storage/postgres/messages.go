package postgres

import (
	"context"
	"fmt"

	"github.com/parleychat/parley/internal/models"
)

func (s *Storage) SaveMessage(ctx context.Context, msg models.Message) error {
	const op = "storage.postgres.SaveMessage"

	sql := `INSERT INTO messages
			(id, chat_id, sender_id, content, file_url, file_type, read, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.Exec(
		ctx,
		sql,
		msg.ID,
		msg.ChatID,
		msg.SenderID,
		msg.Content,
		msg.FileUrl,
		msg.FileType,
		msg.Read,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MarkMessagesRead flips the read flag on every message in the chat that
// the reader did not send. Unread counts are always derived from this
// flag, never stored.
func (s *Storage) MarkMessagesRead(ctx context.Context, chatID, readerID string) error {
	const op = "storage.postgres.MarkMessagesRead"

	sql := `UPDATE messages
			SET read = true
			WHERE chat_id = $1 AND sender_id != $2 AND read = false`
	_, err := s.db.Exec(ctx, sql, chatID, readerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
