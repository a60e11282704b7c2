package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/PULSE_GO/pkg/models"
)

// PresenceRecord is the gorm row shape for a presence record
type PresenceRecord struct {
	UserID     string    `gorm:"primaryKey;column:user_id"`
	Status     string    `gorm:"column:status"`
	LastActive time.Time `gorm:"column:last_active"`
	LastSeen   time.Time `gorm:"column:last_seen"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

// TableName sets the table name for PresenceRecord
func (PresenceRecord) TableName() string {
	return "presences"
}

// presenceRepositoryImpl implements PresenceRepository
type presenceRepositoryImpl struct {
	db *gorm.DB
}

// NewPresenceRepository creates a new presence repository
func NewPresenceRepository(db *gorm.DB) PresenceRepository {
	return &presenceRepositoryImpl{db: db}
}

// SavePresence creates or updates a user's presence record
func (r *presenceRepositoryImpl) SavePresence(ctx context.Context, presence *models.Presence) error {
	record := PresenceRecord{
		UserID:     presence.UserID,
		Status:     string(presence.Status),
		LastActive: presence.LastActive,
		LastSeen:   presence.LastSeen,
		UpdatedAt:  time.Now(),
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&record).Error
}

// GetPresence retrieves a user's persisted presence
func (r *presenceRepositoryImpl) GetPresence(ctx context.Context, userID string) (*models.Presence, error) {
	var record PresenceRecord
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return &models.Presence{
		UserID:     record.UserID,
		Status:     models.PresenceStatus(record.Status),
		LastActive: record.LastActive,
		LastSeen:   record.LastSeen,
	}, nil
}

// GetByStatus retrieves all user IDs with a specific status
func (r *presenceRepositoryImpl) GetByStatus(ctx context.Context, status models.PresenceStatus) ([]string, error) {
	var userIDs []string
	result := r.db.WithContext(ctx).Model(&PresenceRecord{}).Where("status = ?", string(status)).Pluck("user_id", &userIDs)
	return userIDs, result.Error
}
