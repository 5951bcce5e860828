package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/storage"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Service) Register(
	ctx context.Context,
	email string,
	password string,
	displayName string,
	avatarUrl string,
) (models.User, TokenPair, error) {
	const op = "service.Register"

	if err := passwordvalidator.Validate(password, s.cfg.MinPasswordEntropy); err != nil {
		return models.User{}, TokenPair{}, fmt.Errorf("%s: %w: %s", op, ErrWeakPassword, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		AvatarUrl:   avatarUrl,
		Status:      models.StatusOnline,
		LastActive:  time.Now(),
	}

	// A failed save leaves no session behind, so a duplicate name or
	// email never changes the caller's auth state.
	if err = s.storage.SaveUser(ctx, user, string(hash)); err != nil {
		return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publishPresence(ctx, user.ID, models.StatusOnline)

	return user, pair, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (models.User, TokenPair, error) {
	const op = "service.Login"

	user, hash, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	user.Status = models.StatusOnline
	user.LastActive = time.Now()
	if err = s.storage.UpdateStatus(ctx, user.ID, user.Status, user.LastActive); err != nil {
		return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publishPresence(ctx, user.ID, models.StatusOnline)

	return user, pair, nil
}

// Refresh rotates the refresh token: the presented one is consumed and a
// new pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	const op = "service.Refresh"

	userID, err := s.storage.PopToken(ctx, refreshToken, "refresh")
	if err != nil {
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueTokens(ctx, userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const op = "service.Logout"

	userID, err := s.storage.PopToken(ctx, refreshToken, "refresh")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = s.storage.UpdateStatus(ctx, userID, models.StatusOffline, time.Now()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.presence != nil {
		if err = s.presence.ClearPresence(ctx, userID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if s.hub != nil {
		s.hub.Broadcast(models.Event{
			Type: models.EventPresence,
			Data: models.PresenceUpdate{
				UserID:     userID,
				Status:     models.StatusOffline,
				LastActive: time.Now(),
			},
		})
	}

	return nil
}

func (s *Service) VerifyAccessToken(token string) (string, error) {
	const op = "service.VerifyAccessToken"

	userID, err := s.tokens.ValidateToken(token)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return userID, nil
}

func (s *Service) UpdatePassword(ctx context.Context, userID, current, next string) error {
	const op = "service.UpdatePassword"

	hash, err := s.storage.GetPasswordHash(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)); err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err = passwordvalidator.Validate(next, s.cfg.MinPasswordEntropy); err != nil {
		return fmt.Errorf("%s: %w: %s", op, ErrWeakPassword, err)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = s.storage.UpdatePassword(ctx, userID, string(newHash)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RequestPasswordReset emails a single-use recovery link. An unknown
// address is reported as success so the endpoint does not leak which
// emails are registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "service.RequestPasswordReset"

	user, _, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	token := uuid.NewString()
	err = s.storage.SaveToken(ctx, token, user.ID, "reset", time.Now().Add(s.cfg.ResetTTL))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = s.mailer.SendPasswordReset(user.Email, user.DisplayName, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, next string) error {
	const op = "service.ResetPassword"

	userID, err := s.storage.PopToken(ctx, token, "reset")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = passwordvalidator.Validate(next, s.cfg.MinPasswordEntropy); err != nil {
		return fmt.Errorf("%s: %w: %s", op, ErrWeakPassword, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = s.storage.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Password changed, drop every open session.
	if err = s.storage.DeleteUserTokens(ctx, userID, "refresh"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) issueTokens(ctx context.Context, userID string) (TokenPair, error) {
	access, err := s.tokens.GenerateToken(userID)
	if err != nil {
		return TokenPair{}, err
	}

	refresh := uuid.NewString()
	err = s.storage.SaveToken(ctx, refresh, userID, "refresh", time.Now().Add(s.cfg.RefreshTTL))
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *Service) publishPresence(ctx context.Context, userID string, status models.Status) {
	now := time.Now()

	if s.presence != nil {
		_ = s.presence.SetPresence(ctx, userID, status, now)
	}

	if s.hub != nil {
		s.hub.Broadcast(models.Event{
			Type: models.EventPresence,
			Data: models.PresenceUpdate{
				UserID:     userID,
				Status:     status,
				LastActive: now,
			},
		})
	}
}
