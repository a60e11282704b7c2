package repository

import (
	"context"
	"time"
)

// StoredMessage is a chat message at rest. Content is encrypted before
// it reaches the repository; the repository never sees plaintext.
type StoredMessage struct {
	ID         string
	Room       string
	Sender     string
	Ciphertext string
	IV         string
	SentAt     time.Time
}

// MessageRepository persists encrypted chat messages
type MessageRepository interface {
	// SaveMessage stores one encrypted message
	SaveMessage(ctx context.Context, msg *StoredMessage) error

	// FindByRoom returns the room's most recent messages, oldest first,
	// capped at limit
	FindByRoom(ctx context.Context, room string, limit int) ([]*StoredMessage, error)
}
