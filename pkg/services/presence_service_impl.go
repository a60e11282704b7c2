package services

import (
	"context"
	"sync"
	"time"

	"github.com/jgirmay/PULSE_GO/pkg/events"
	"github.com/jgirmay/PULSE_GO/pkg/logging"
	"github.com/jgirmay/PULSE_GO/pkg/metrics"
	"github.com/jgirmay/PULSE_GO/pkg/models"
	"github.com/jgirmay/PULSE_GO/pkg/repository"
)

// PresenceServiceImpl implements PresenceService
type PresenceServiceImpl struct {
	mu      sync.RWMutex
	records map[string]*models.Presence

	repo       repository.PresenceRepository
	dispatcher events.EventDispatcher
}

// NewPresenceService creates a new presence service. Both collaborators
// may be nil: the repository mirror and the broadcast are optional.
func NewPresenceService(repo repository.PresenceRepository, dispatcher events.EventDispatcher) *PresenceServiceImpl {
	return &PresenceServiceImpl{
		records:    make(map[string]*models.Presence),
		repo:       repo,
		dispatcher: dispatcher,
	}
}

// SetStatus overwrites the user's presence status
func (s *PresenceServiceImpl) SetStatus(ctx context.Context, userID string, status models.PresenceStatus) error {
	now := time.Now()

	s.mu.Lock()
	record, ok := s.records[userID]
	if !ok {
		record = &models.Presence{UserID: userID, Status: models.StatusOffline}
		s.records[userID] = record
	}
	record.Status = status
	record.LastSeen = now
	if status == models.StatusOffline {
		record.LastActive = now
	}
	snapshot := *record
	s.mu.Unlock()

	metrics.PresenceTransitions.WithLabelValues(string(status)).Inc()

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(events.Event{
			Type: events.EventStatusChange,
			Data: map[string]interface{}{
				"userId": userID,
				"status": string(status),
			},
			Timestamp: now,
		})
	}

	// Persistence is best-effort: failures are logged, never rolled back
	if s.repo != nil {
		go func() {
			if err := s.repo.SavePresence(context.Background(), &snapshot); err != nil {
				logging.Warnf("failed to persist presence for %s: %v", userID, err)
			}
		}()
	}

	return nil
}

// Get returns the user's current presence record
func (s *PresenceServiceImpl) Get(userID string) models.Presence {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if record, ok := s.records[userID]; ok {
		return *record
	}
	return models.Presence{UserID: userID, Status: models.StatusOffline}
}

// OnlineUsers returns the IDs of all users currently marked online
func (s *PresenceServiceImpl) OnlineUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []string
	for userID, record := range s.records {
		if record.Status == models.StatusOnline {
			users = append(users, userID)
		}
	}
	return users
}
