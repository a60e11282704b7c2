package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// MessageRecord is the gorm row shape for an encrypted chat message
type MessageRecord struct {
	ID         string    `gorm:"primaryKey;column:id"`
	Room       string    `gorm:"column:room;index"`
	Sender     string    `gorm:"column:sender"`
	Ciphertext string    `gorm:"column:ciphertext"`
	IV         string    `gorm:"column:iv"`
	SentAt     time.Time `gorm:"column:sent_at;index"`
}

// TableName sets the table name for MessageRecord
func (MessageRecord) TableName() string {
	return "messages"
}

// messageRepositoryImpl implements MessageRepository
type messageRepositoryImpl struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepositoryImpl{db: db}
}

// SaveMessage stores one encrypted message
func (r *messageRepositoryImpl) SaveMessage(ctx context.Context, msg *StoredMessage) error {
	record := MessageRecord{
		ID:         msg.ID,
		Room:       msg.Room,
		Sender:     msg.Sender,
		Ciphertext: msg.Ciphertext,
		IV:         msg.IV,
		SentAt:     msg.SentAt,
	}
	return r.db.WithContext(ctx).Create(&record).Error
}

// FindByRoom returns the room's most recent messages, oldest first
func (r *messageRepositoryImpl) FindByRoom(ctx context.Context, room string, limit int) ([]*StoredMessage, error) {
	var records []MessageRecord
	result := r.db.WithContext(ctx).
		Where("room = ?", room).
		Order("sent_at DESC").
		Limit(limit).
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}

	// Reverse the newest-first page so callers read chronologically
	messages := make([]*StoredMessage, len(records))
	for i := range records {
		record := records[len(records)-1-i]
		messages[i] = &StoredMessage{
			ID:         record.ID,
			Room:       record.Room,
			Sender:     record.Sender,
			Ciphertext: record.Ciphertext,
			IV:         record.IV,
			SentAt:     record.SentAt,
		}
	}
	return messages, nil
}
