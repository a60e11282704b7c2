package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/PULSE_GO/pkg/models"
)

// CallRecord is the gorm row shape for a call session.
// Recipients and participants are serialized as JSON columns.
type CallRecord struct {
	ID           string     `gorm:"primaryKey;column:id"`
	Initiator    string     `gorm:"column:initiator;index"`
	Recipients   []byte     `gorm:"column:recipients;type:json"`
	ChatGroup    string     `gorm:"column:chat_group"`
	Type         string     `gorm:"column:type"`
	Status       string     `gorm:"column:status"`
	StartTime    *time.Time `gorm:"column:start_time"`
	EndTime      *time.Time `gorm:"column:end_time"`
	Participants []byte     `gorm:"column:participants;type:json"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

// TableName sets the table name for CallRecord
func (CallRecord) TableName() string {
	return "calls"
}

// callRepositoryImpl implements CallRepository
type callRepositoryImpl struct {
	db *gorm.DB
}

// NewCallRepository creates a new call repository
func NewCallRepository(db *gorm.DB) CallRepository {
	return &callRepositoryImpl{db: db}
}

// SaveCall creates or updates the persisted row for a call session
func (r *callRepositoryImpl) SaveCall(ctx context.Context, call *models.Call) error {
	record, err := toCallRecord(call)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(record).Error
}

// GetCall retrieves a persisted call by ID
func (r *callRepositoryImpl) GetCall(ctx context.Context, callID string) (*models.Call, error) {
	var record CallRecord
	result := r.db.WithContext(ctx).Where("id = ?", callID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return fromCallRecord(&record)
}

// FindCallsByUser retrieves all persisted calls involving the user, newest first
func (r *callRepositoryImpl) FindCallsByUser(ctx context.Context, userID string) ([]*models.Call, error) {
	var records []CallRecord
	needle, err := json.Marshal(userID)
	if err != nil {
		return nil, err
	}

	// Recipient match scans the JSON column textually; recipients are
	// flat string arrays so a quoted-ID containment check is exact.
	result := r.db.WithContext(ctx).
		Where("initiator = ? OR recipients LIKE ?", userID, "%"+string(needle)+"%").
		Order("created_at DESC").
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}

	calls := make([]*models.Call, 0, len(records))
	for i := range records {
		call, err := fromCallRecord(&records[i])
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	return calls, nil
}

// toCallRecord converts a domain call to its row shape
func toCallRecord(call *models.Call) (*CallRecord, error) {
	recipients, err := json.Marshal(call.Recipients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipients: %w", err)
	}

	participants, err := json.Marshal(call.Participants)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal participants: %w", err)
	}

	return &CallRecord{
		ID:           call.ID,
		Initiator:    call.Initiator,
		Recipients:   recipients,
		ChatGroup:    call.ChatGroup,
		Type:         string(call.Type),
		Status:       string(call.Status),
		StartTime:    call.StartTime,
		EndTime:      call.EndTime,
		Participants: participants,
		CreatedAt:    call.CreatedAt,
		UpdatedAt:    call.UpdatedAt,
	}, nil
}

// fromCallRecord converts a row back to the domain shape
func fromCallRecord(record *CallRecord) (*models.Call, error) {
	call := &models.Call{
		ID:        record.ID,
		Initiator: record.Initiator,
		ChatGroup: record.ChatGroup,
		Type:      models.CallType(record.Type),
		Status:    models.CallStatus(record.Status),
		StartTime: record.StartTime,
		EndTime:   record.EndTime,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}

	if len(record.Recipients) > 0 {
		if err := json.Unmarshal(record.Recipients, &call.Recipients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipients: %w", err)
		}
	}
	if len(record.Participants) > 0 {
		if err := json.Unmarshal(record.Participants, &call.Participants); err != nil {
			return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
		}
	}

	return call, nil
}
