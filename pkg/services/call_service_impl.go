package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jgirmay/PULSE_GO/pkg/events"
	"github.com/jgirmay/PULSE_GO/pkg/logging"
	"github.com/jgirmay/PULSE_GO/pkg/metrics"
	"github.com/jgirmay/PULSE_GO/pkg/models"
	"github.com/jgirmay/PULSE_GO/pkg/repository"
)

// CallServiceImpl implements CallService. The in-memory table is
// authoritative for live calls; every mutation is mirrored to the
// persistence collaborator asynchronously and best-effort.
type CallServiceImpl struct {
	mu    sync.RWMutex
	calls map[string]*models.Call

	repo     repository.CallRepository
	notifier Notifier
}

// NewCallService creates a new call service. Both collaborators may be nil.
func NewCallService(repo repository.CallRepository, notifier Notifier) *CallServiceImpl {
	return &CallServiceImpl{
		calls:    make(map[string]*models.Call),
		repo:     repo,
		notifier: notifier,
	}
}

// Initiate creates a ringing call and invites every reachable recipient
func (s *CallServiceImpl) Initiate(ctx context.Context, initiator string, recipients []string, kind models.CallType, chatGroup string) (*models.Call, error) {
	now := time.Now()
	call := &models.Call{
		ID:         uuid.New().String(),
		Initiator:  initiator,
		Recipients: append([]string(nil), recipients...),
		ChatGroup:  chatGroup,
		Type:       kind,
		Status:     models.CallRinging,
		Participants: []models.CallParticipant{
			{UserID: initiator, JoinedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.calls[call.ID] = call
	snapshot := copyCall(call)
	s.mu.Unlock()

	metrics.ActiveCalls.Inc()
	s.persist(snapshot)

	// Invitation goes to recipients only, never back to the initiator
	if s.notifier != nil {
		for _, recipient := range recipients {
			s.notifier.Relay(events.EventIncomingCall, initiator, recipient, map[string]interface{}{
				"callId": call.ID,
				"caller": initiator,
				"type":   string(kind),
			})
		}
	}

	return snapshot, nil
}

// Accept moves a ringing call to ongoing and records the acceptor
func (s *CallServiceImpl) Accept(ctx context.Context, callID, userID string) (*models.Call, error) {
	s.mu.Lock()
	call, ok := s.calls[callID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrCallNotFound
	}
	if call.Status.Terminal() {
		s.mu.Unlock()
		return nil, ErrInvalidCallState
	}

	now := time.Now()
	call.Status = models.CallOngoing
	if call.StartTime == nil {
		start := now
		call.StartTime = &start
	}
	call.Participants = append(call.Participants, models.CallParticipant{
		UserID:   userID,
		JoinedAt: now,
	})
	call.UpdatedAt = now
	snapshot := copyCall(call)
	s.mu.Unlock()

	s.persist(snapshot)

	if s.notifier != nil {
		s.notifier.Relay(events.EventCallAccepted, userID, snapshot.Initiator, map[string]interface{}{
			"callId":   callID,
			"acceptor": userID,
		})
	}

	return snapshot, nil
}

// Reject declines a ringing call
func (s *CallServiceImpl) Reject(ctx context.Context, callID, userID string) (*models.Call, error) {
	s.mu.Lock()
	call, ok := s.calls[callID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrCallNotFound
	}
	if call.Status != models.CallRinging {
		// Accept pre-empts a later reject; terminal calls stay terminal
		s.mu.Unlock()
		return nil, ErrInvalidCallState
	}

	call.Status = models.CallRejected
	call.UpdatedAt = time.Now()
	snapshot := copyCall(call)
	s.mu.Unlock()

	metrics.ActiveCalls.Dec()
	s.persist(snapshot)

	if s.notifier != nil {
		s.notifier.Relay(events.EventCallRejected, userID, snapshot.Initiator, map[string]interface{}{
			"callId":   callID,
			"rejector": userID,
		})
	}

	return snapshot, nil
}

// End terminates the call and closes every open participant record
func (s *CallServiceImpl) End(ctx context.Context, callID string) (*models.Call, error) {
	s.mu.Lock()
	call, ok := s.calls[callID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrCallNotFound
	}
	if call.Status.Terminal() {
		// endTime is written exactly once
		s.mu.Unlock()
		return nil, ErrInvalidCallState
	}

	s.endLocked(call)
	snapshot := copyCall(call)
	s.mu.Unlock()

	metrics.ActiveCalls.Dec()
	s.persist(snapshot)
	s.notifyEnded(snapshot)

	return snapshot, nil
}

// Leave closes the user's participant record and auto-ends the call
// when nobody is left on it
func (s *CallServiceImpl) Leave(ctx context.Context, callID, userID string) (*models.Call, error) {
	s.mu.Lock()
	call, ok := s.calls[callID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrCallNotFound
	}

	now := time.Now()
	for i := range call.Participants {
		p := &call.Participants[i]
		if p.UserID == userID && p.LeftAt == nil {
			left := now
			p.LeftAt = &left
			call.UpdatedAt = now
			break
		}
	}

	ended := false
	if !call.Status.Terminal() && len(call.ActiveParticipants()) == 0 {
		s.endLocked(call)
		ended = true
	}
	snapshot := copyCall(call)
	s.mu.Unlock()

	s.persist(snapshot)
	if ended {
		metrics.ActiveCalls.Dec()
		s.notifyEnded(snapshot)
	}

	return snapshot, nil
}

// History returns all calls involving the user, newest first. Persisted
// rows from earlier runs are merged with the in-memory table, which
// wins for calls present in both.
func (s *CallServiceImpl) History(ctx context.Context, userID string) ([]*models.Call, error) {
	byID := make(map[string]*models.Call)

	if s.repo != nil {
		persisted, err := s.repo.FindCallsByUser(ctx, userID)
		if err != nil {
			logging.Warnf("failed to load call history for %s: %v", userID, err)
		} else {
			for _, call := range persisted {
				byID[call.ID] = call
			}
		}
	}

	s.mu.RLock()
	for _, call := range s.calls {
		if call.Involves(userID) {
			byID[call.ID] = copyCall(call)
		}
	}
	s.mu.RUnlock()

	calls := make([]*models.Call, 0, len(byID))
	for _, call := range byID {
		calls = append(calls, call)
	}
	sort.Slice(calls, func(i, j int) bool {
		return calls[i].CreatedAt.After(calls[j].CreatedAt)
	})

	return calls, nil
}

// Active returns the single ringing or ongoing call involving the user
func (s *CallServiceImpl) Active(ctx context.Context, userID string) (*models.Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, call := range s.calls {
		if call.Status.Terminal() {
			continue
		}
		if call.Involves(userID) {
			return copyCall(call), nil
		}
	}
	return nil, nil
}

// endLocked applies the ended transition. Caller holds s.mu.
func (s *CallServiceImpl) endLocked(call *models.Call) {
	now := time.Now()
	call.Status = models.CallEnded
	if call.EndTime == nil {
		end := now
		call.EndTime = &end
	}
	for i := range call.Participants {
		if call.Participants[i].LeftAt == nil {
			left := now
			call.Participants[i].LeftAt = &left
		}
	}
	call.UpdatedAt = now
}

// notifyEnded tells every recorded participant the call is over
func (s *CallServiceImpl) notifyEnded(call *models.Call) {
	if s.notifier == nil {
		return
	}

	seen := make(map[string]bool)
	for _, p := range call.Participants {
		if seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true
		s.notifier.Relay(events.EventCallEnded, call.Initiator, p.UserID, map[string]interface{}{
			"callId": call.ID,
		})
	}
}

// persist mirrors a snapshot to storage without blocking the caller
func (s *CallServiceImpl) persist(call *models.Call) {
	if s.repo == nil {
		return
	}
	go func() {
		if err := s.repo.SaveCall(context.Background(), call); err != nil {
			logging.Warnf("failed to persist call %s: %v", call.ID, err)
		}
	}()
}

// copyCall returns a deep copy safe to hand to callers
func copyCall(call *models.Call) *models.Call {
	cp := *call
	cp.Recipients = append([]string(nil), call.Recipients...)
	cp.Participants = make([]models.CallParticipant, len(call.Participants))
	for i, p := range call.Participants {
		cp.Participants[i] = p
		if p.LeftAt != nil {
			left := *p.LeftAt
			cp.Participants[i].LeftAt = &left
		}
	}
	if call.StartTime != nil {
		start := *call.StartTime
		cp.StartTime = &start
	}
	if call.EndTime != nil {
		end := *call.EndTime
		cp.EndTime = &end
	}
	return &cp
}
