package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/storage"
)

func (s *Storage) SaveUser(ctx context.Context, user models.User, passwordHash string) error {
	const op = "storage.postgres.SaveUser"

	sql := `INSERT INTO profiles
			(id, email, password_hash, display_name, avatar_url, status, last_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.Exec(
		ctx,
		sql,
		user.ID,
		user.Email,
		passwordHash,
		user.DisplayName,
		user.AvatarUrl,
		user.Status,
		user.LastActive,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				if strings.Contains(pgErr.ConstraintName, "display_name") {
					return fmt.Errorf("%s: %w", op, storage.ErrNameTaken)
				}
				return fmt.Errorf("%s: %w", op, storage.ErrUserAlreadyExists)
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetUser(ctx context.Context, id string) (models.User, error) {
	const op = "storage.postgres.GetUser"

	var user models.User
	sql := `SELECT id, email, display_name, avatar_url, status, last_active
			FROM profiles
			WHERE id = $1`
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.AvatarUrl,
		&user.Status,
		&user.LastActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (models.User, string, error) {
	const op = "storage.postgres.GetUserByEmail"

	var user models.User
	var hash string
	sql := `SELECT id, email, password_hash, display_name, avatar_url, status, last_active
			FROM profiles
			WHERE email = $1`
	err := s.db.QueryRow(ctx, sql, email).Scan(
		&user.ID,
		&user.Email,
		&hash,
		&user.DisplayName,
		&user.AvatarUrl,
		&user.Status,
		&user.LastActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, "", fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	return user, hash, nil
}

func (s *Storage) GetPasswordHash(ctx context.Context, id string) (string, error) {
	const op = "storage.postgres.GetPasswordHash"

	var hash string
	err := s.db.QueryRow(ctx, "SELECT password_hash FROM profiles WHERE id = $1", id).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return hash, nil
}

func (s *Storage) ListUsers(ctx context.Context, excludeID string) ([]models.User, error) {
	const op = "storage.postgres.ListUsers"

	sql := `SELECT id, display_name, avatar_url, status, last_active
			FROM profiles
			WHERE id != $1
			ORDER BY display_name`
	rows, err := s.db.Query(ctx, sql, excludeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User

		err = rows.Scan(&user.ID, &user.DisplayName, &user.AvatarUrl, &user.Status, &user.LastActive)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		users = append(users, user)
	}

	return users, nil
}

func (s *Storage) UpdateProfile(
	ctx context.Context,
	id string,
	displayName string,
	avatarUrl string,
) (models.User, error) {
	const op = "storage.postgres.UpdateProfile"

	var sb strings.Builder
	sb.WriteString("UPDATE profiles SET updated_at = now()")

	counter := 1
	args := make([]any, 0, 3)

	if displayName != "" {
		sb.WriteString(fmt.Sprintf(", display_name = $%d", counter))
		counter++
		args = append(args, displayName)
	}
	if avatarUrl != "" {
		sb.WriteString(fmt.Sprintf(", avatar_url = $%d", counter))
		counter++
		args = append(args, avatarUrl)
	}

	sb.WriteString(fmt.Sprintf(
		" WHERE id = $%d RETURNING id, email, display_name, avatar_url, status, last_active",
		counter,
	))
	args = append(args, id)

	var user models.User
	err := s.db.QueryRow(ctx, sb.String(), args...).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.AvatarUrl,
		&user.Status,
		&user.LastActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrNameTaken)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UpdateStatus(
	ctx context.Context,
	id string,
	status models.Status,
	lastActive time.Time,
) error {
	const op = "storage.postgres.UpdateStatus"

	sql := `UPDATE profiles
			SET status = $1, last_active = $2, updated_at = now()
			WHERE id = $3`
	tag, err := s.db.Exec(ctx, sql, status, lastActive, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return nil
}

func (s *Storage) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	const op = "storage.postgres.UpdatePassword"

	sql := `UPDATE profiles
			SET password_hash = $1, updated_at = now()
			WHERE id = $2`
	tag, err := s.db.Exec(ctx, sql, passwordHash, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return nil
}
