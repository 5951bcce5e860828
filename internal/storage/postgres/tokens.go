package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/parleychat/parley/internal/storage"
)

func (s *Storage) SaveToken(
	ctx context.Context,
	token string,
	userID string,
	purpose string,
	expiresAt time.Time,
) error {
	const op = "storage.postgres.SaveToken"

	sql := `INSERT INTO auth_tokens (token, user_id, purpose, expires_at)
			VALUES ($1, $2, $3, $4)`
	_, err := s.db.Exec(ctx, sql, token, userID, purpose, expiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// PopToken consumes a token: it is deleted whether or not it is still
// valid, so every token is single-use.
func (s *Storage) PopToken(ctx context.Context, token, purpose string) (string, error) {
	const op = "storage.postgres.PopToken"

	sql := `DELETE FROM auth_tokens
			WHERE token = $1 AND purpose = $2
			RETURNING user_id, expires_at`

	var userID string
	var expiresAt time.Time
	err := s.db.QueryRow(ctx, sql, token, purpose).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if time.Now().After(expiresAt) {
		return "", fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
	}

	return userID, nil
}

func (s *Storage) DeleteUserTokens(ctx context.Context, userID, purpose string) error {
	const op = "storage.postgres.DeleteUserTokens"

	_, err := s.db.Exec(
		ctx,
		"DELETE FROM auth_tokens WHERE user_id = $1 AND purpose = $2",
		userID, purpose,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
