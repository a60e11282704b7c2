package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jgirmay/PULSE_GO/pkg/logging"
	"github.com/jgirmay/PULSE_GO/pkg/models"
	"github.com/jgirmay/PULSE_GO/pkg/repository"
	"github.com/jgirmay/PULSE_GO/pkg/security"
)

// MessageArchive records relayed chat messages and serves room history.
// Content is encrypted before it leaves the service; the store only ever
// holds ciphertext.
type MessageArchive interface {
	// Archive records one relayed message, best-effort
	Archive(room, sender, content string)

	// History returns the room's most recent messages decrypted,
	// oldest first
	History(ctx context.Context, room string, limit int) ([]*models.ChatMessage, error)
}

// MessageArchiveImpl implements MessageArchive over a repository and a
// payload cipher
type MessageArchiveImpl struct {
	repo   repository.MessageRepository
	cipher *security.Cipher
}

// NewMessageArchive creates a message archive
func NewMessageArchive(repo repository.MessageRepository, cipher *security.Cipher) *MessageArchiveImpl {
	return &MessageArchiveImpl{repo: repo, cipher: cipher}
}

// Archive encrypts and persists one relayed message. Archiving never
// blocks or fails the relay path; storage errors are logged and dropped.
func (a *MessageArchiveImpl) Archive(room, sender, content string) {
	if a.repo == nil || room == "" || content == "" {
		return
	}

	ciphertext, iv, err := a.cipher.Encrypt(content)
	if err != nil {
		logging.Warnf("failed to encrypt message for room %s: %v", room, err)
		return
	}

	msg := &repository.StoredMessage{
		ID:         uuid.New().String(),
		Room:       room,
		Sender:     sender,
		Ciphertext: ciphertext,
		IV:         iv,
		SentAt:     time.Now(),
	}

	go func() {
		if err := a.repo.SaveMessage(context.Background(), msg); err != nil {
			logging.Warnf("failed to archive message %s: %v", msg.ID, err)
		}
	}()
}

// History loads and decrypts the room's recent messages. A message that
// fails to decrypt is skipped with a warning rather than failing the page.
func (a *MessageArchiveImpl) History(ctx context.Context, room string, limit int) ([]*models.ChatMessage, error) {
	if a.repo == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	stored, err := a.repo.FindByRoom(ctx, room, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]*models.ChatMessage, 0, len(stored))
	for _, msg := range stored {
		content, err := a.cipher.Decrypt(msg.Ciphertext, msg.IV)
		if err != nil {
			logging.Warnf("failed to decrypt message %s: %v", msg.ID, err)
			continue
		}
		messages = append(messages, &models.ChatMessage{
			ID:      msg.ID,
			Room:    msg.Room,
			Sender:  msg.Sender,
			Content: content,
			SentAt:  msg.SentAt,
		})
	}
	return messages, nil
}
