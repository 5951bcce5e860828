package storage

import "errors"

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrNameTaken         = errors.New("display name is already taken")
	ErrUserNotFound      = errors.New("user with this id does not found")
	ErrChatNotFound      = errors.New("chat with this id does not found")
	ErrNotParticipant    = errors.New("user is not a participant of the chat")
	ErrTokenNotFound     = errors.New("token does not found or expired")
)
