package service

import (
	"context"
	"fmt"
	"time"

	"github.com/parleychat/parley/internal/models"
)

// ListUsers returns the directory without the caller. Presence is
// overlaid from the cache, so a user whose session silently died shows
// offline even if the profile row still says online.
func (s *Service) ListUsers(ctx context.Context, callerID string) ([]models.User, error) {
	const op = "service.ListUsers"

	users, err := s.storage.ListUsers(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.presence != nil {
		for i := range users {
			status, lastActive, err := s.presence.GetPresence(ctx, users[i].ID)
			if err != nil {
				continue
			}

			users[i].Status = status
			if !lastActive.IsZero() {
				users[i].LastActive = lastActive
			}
		}
	}

	return users, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (models.User, error) {
	const op = "service.GetProfile"

	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	displayName string,
	avatarUrl string,
) (models.User, error) {
	const op = "service.UpdateProfile"

	user, err := s.storage.UpdateProfile(ctx, userID, displayName, avatarUrl)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Service) UpdateStatus(ctx context.Context, userID string, status models.Status) error {
	const op = "service.UpdateStatus"

	if !status.Valid() {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidStatus, status)
	}

	if err := s.storage.UpdateStatus(ctx, userID, status, time.Now()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publishPresence(ctx, userID, status)

	return nil
}
