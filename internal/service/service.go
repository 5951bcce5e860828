package service

import (
	"context"
	"errors"
	"time"

	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmptyMessage       = errors.New("message content is empty")
	ErrFileTooLarge       = errors.New("file exceeds the upload limit")
	ErrNameRequired       = errors.New("group chat requires a name")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrNoParticipants     = errors.New("chat requires at least one participant")
	ErrInvalidStatus      = errors.New("unknown presence status")
)

type Storage interface {
	SaveUser(ctx context.Context, user models.User, passwordHash string) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, string, error)
	GetPasswordHash(ctx context.Context, id string) (string, error)
	ListUsers(ctx context.Context, excludeID string) ([]models.User, error)
	UpdateProfile(ctx context.Context, id, displayName, avatarUrl string) (models.User, error)
	UpdateStatus(ctx context.Context, id string, status models.Status, lastActive time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	SaveChat(
		ctx context.Context,
		id string,
		chatType models.ChatType,
		name string,
		participantIDs []string,
	) error
	FindDirectChat(ctx context.Context, userID, otherID string) (string, error)
	GetChat(ctx context.Context, id string) (models.Chat, error)
	GetUserChats(ctx context.Context, userID string) ([]models.Chat, error)
	GetParticipantIDs(ctx context.Context, chatID string) ([]string, error)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)

	SaveMessage(ctx context.Context, msg models.Message) error
	MarkMessagesRead(ctx context.Context, chatID, readerID string) error

	SaveToken(ctx context.Context, token, userID, purpose string, expiresAt time.Time) error
	PopToken(ctx context.Context, token, purpose string) (string, error)
	DeleteUserTokens(ctx context.Context, userID, purpose string) error
}

type Presence interface {
	SetPresence(ctx context.Context, userID string, status models.Status, lastActive time.Time) error
	GetPresence(ctx context.Context, userID string) (models.Status, time.Time, error)
	ClearPresence(ctx context.Context, userID string) error
}

type S3 interface {
	SaveAttachment(ctx context.Context, upload models.Upload) (string, error)
}

type Mailer interface {
	SendInvite(to, inviterName string) error
	SendPasswordReset(to, displayName, token string) error
}

type Broadcaster interface {
	BroadcastToUsers(userIDs []string, ev models.Event)
	Broadcast(ev models.Event)
}

type Config struct {
	RefreshTTL         time.Duration
	ResetTTL           time.Duration
	MaxUploadSize      int64
	MinPasswordEntropy float64
}

type Service struct {
	storage  Storage
	presence Presence
	s3       S3
	mailer   Mailer
	hub      Broadcaster
	tokens   *jwt.Manager
	cfg      Config
}

func New(
	storage Storage,
	presence Presence,
	s3 S3,
	mailer Mailer,
	hub Broadcaster,
	tokens *jwt.Manager,
	cfg Config,
) *Service {
	return &Service{
		storage:  storage,
		presence: presence,
		s3:       s3,
		mailer:   mailer,
		hub:      hub,
		tokens:   tokens,
		cfg:      cfg,
	}
}
