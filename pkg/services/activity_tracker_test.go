package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/PULSE_GO/pkg/models"
)

// recordingPresence is an in-memory PresenceService that records every
// transition for inspection
type recordingPresence struct {
	mu          sync.Mutex
	statuses    map[string]models.PresenceStatus
	transitions []models.PresenceStatus
}

func newRecordingPresence() *recordingPresence {
	return &recordingPresence{statuses: make(map[string]models.PresenceStatus)}
}

func (p *recordingPresence) SetStatus(_ context.Context, userID string, status models.PresenceStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[userID] = status
	p.transitions = append(p.transitions, status)
	return nil
}

func (p *recordingPresence) Get(userID string) models.Presence {
	p.mu.Lock()
	defer p.mu.Unlock()
	status, ok := p.statuses[userID]
	if !ok {
		status = models.StatusOffline
	}
	return models.Presence{UserID: userID, Status: status}
}

func (p *recordingPresence) OnlineUsers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var users []string
	for userID, status := range p.statuses {
		if status == models.StatusOnline {
			users = append(users, userID)
		}
	}
	return users
}

func (p *recordingPresence) status(userID string) models.PresenceStatus {
	return p.Get(userID).Status
}

func waitForStatus(t *testing.T, p *recordingPresence, userID string, want models.PresenceStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		return p.status(userID) == want
	}, time.Second, 5*time.Millisecond, "expected status %s", want)
}

func TestTrackerDecaySequence(t *testing.T) {
	presence := newRecordingPresence()
	tracker := NewActivityTracker(presence, 30*time.Millisecond, 90*time.Millisecond)

	_ = presence.SetStatus(context.Background(), "alice", models.StatusOnline)
	tracker.Reset("alice")

	assert.Equal(t, models.StatusOnline, presence.status("alice"))

	waitForStatus(t, presence, "alice", models.StatusAway)
	waitForStatus(t, presence, "alice", models.StatusOffline)

	// The timer slot is released after the offline transition
	assert.False(t, tracker.Armed("alice"))
}

func TestTrackerActivityResetsClock(t *testing.T) {
	presence := newRecordingPresence()
	tracker := NewActivityTracker(presence, 50*time.Millisecond, 150*time.Millisecond)

	_ = presence.SetStatus(context.Background(), "alice", models.StatusOnline)
	tracker.Reset("alice")

	// Keep touching before the away deadline; the user must stay online
	for i := 0; i < 4; i++ {
		time.Sleep(25 * time.Millisecond)
		tracker.Touch("alice")
	}
	assert.Equal(t, models.StatusOnline, presence.status("alice"))

	// Once activity stops, decay proceeds from the last touch
	waitForStatus(t, presence, "alice", models.StatusAway)
}

func TestTrackerCancelPreventsFiring(t *testing.T) {
	presence := newRecordingPresence()
	tracker := NewActivityTracker(presence, 20*time.Millisecond, 60*time.Millisecond)

	_ = presence.SetStatus(context.Background(), "alice", models.StatusOnline)
	tracker.Reset("alice")
	tracker.Cancel("alice")

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, models.StatusOnline, presence.status("alice"))
	assert.False(t, tracker.Armed("alice"))
}

func TestTrackerStaleOfflineDiscarded(t *testing.T) {
	presence := newRecordingPresence()
	tracker := NewActivityTracker(presence, 20*time.Millisecond, 60*time.Millisecond)

	_ = presence.SetStatus(context.Background(), "alice", models.StatusOnline)
	tracker.Reset("alice")

	// Let the away stage fire, then signal activity before the offline stage
	waitForStatus(t, presence, "alice", models.StatusAway)
	tracker.Touch("alice")
	assert.Equal(t, models.StatusOnline, presence.status("alice"))

	// The superseded offline timer must not demote the fresh online state
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, models.StatusOnline, presence.status("alice"))
}

func TestTrackerStaleFiringAfterCancelAndRearm(t *testing.T) {
	presence := newRecordingPresence()
	tracker := NewActivityTracker(presence, 40*time.Millisecond, 120*time.Millisecond)

	_ = presence.SetStatus(context.Background(), "alice", models.StatusOnline)

	// A callback scheduled by the first arm may still be pending after a
	// disconnect and reconnect. Its token must not match the re-armed
	// slot, even though the slot was torn down in between.
	tracker.Reset("alice")
	tracker.Cancel("alice")
	tracker.Reset("alice")

	tracker.fireOffline("alice", 1)

	assert.True(t, tracker.Armed("alice"), "stale firing must not tear down the fresh timer")
	assert.Equal(t, models.StatusOnline, presence.status("alice"))

	// The fresh timer still decays normally
	waitForStatus(t, presence, "alice", models.StatusAway)
}

func TestTrackerTouchForcesOnline(t *testing.T) {
	presence := newRecordingPresence()
	tracker := NewActivityTracker(presence, 50*time.Millisecond, 150*time.Millisecond)

	_ = presence.SetStatus(context.Background(), "alice", models.StatusAway)
	tracker.Touch("alice")

	assert.Equal(t, models.StatusOnline, presence.status("alice"))
	assert.True(t, tracker.Armed("alice"))
}

func TestTrackerIdentitiesAreIndependent(t *testing.T) {
	presence := newRecordingPresence()
	tracker := NewActivityTracker(presence, 30*time.Millisecond, 90*time.Millisecond)

	_ = presence.SetStatus(context.Background(), "alice", models.StatusOnline)
	_ = presence.SetStatus(context.Background(), "bob", models.StatusOnline)
	tracker.Reset("alice")
	tracker.Reset("bob")

	tracker.Cancel("bob")

	waitForStatus(t, presence, "alice", models.StatusAway)
	assert.Equal(t, models.StatusOnline, presence.status("bob"))
}
