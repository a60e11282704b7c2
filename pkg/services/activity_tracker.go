package services

import (
	"context"
	"sync"
	"time"

	"github.com/jgirmay/PULSE_GO/pkg/models"
)

// ActivityTracker drives the online -> away -> offline presence decay.
// Each identity has at most one live timer; any activity replaces it.
// Timer callbacks carry a generation token so a firing that raced with
// a reset or cancel is discarded instead of corrupting fresh state.
// Generations are monotonic per identity and outlive the timer slot:
// a token minted before a Cancel can never match a later re-arm.
//
// The tracker mutex serializes activity signals against timer firings,
// which keeps per-identity presence/timer updates linearizable.
type ActivityTracker struct {
	mu       sync.Mutex
	gens     map[string]uint64
	timers   map[string]*time.Timer
	presence PresenceService

	awayTimeout    time.Duration
	offlineTimeout time.Duration
}

// NewActivityTracker creates a tracker with the given decay timeouts.
// offlineTimeout is measured from the last activity, not from entering away.
func NewActivityTracker(presence PresenceService, awayTimeout, offlineTimeout time.Duration) *ActivityTracker {
	return &ActivityTracker{
		gens:           make(map[string]uint64),
		timers:         make(map[string]*time.Timer),
		presence:       presence,
		awayTimeout:    awayTimeout,
		offlineTimeout: offlineTimeout,
	}
}

// Reset (re)arms the away timer for the identity, invalidating any
// previously scheduled firing. Used on connect and after activity.
func (t *ActivityTracker) Reset(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked(userID)
}

// Touch records activity: the user is forced back online when decayed,
// and the decay clock restarts from now.
func (t *ActivityTracker) Touch(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.presence.Get(userID).Status != models.StatusOnline {
		_ = t.presence.SetStatus(context.Background(), userID, models.StatusOnline)
	}
	t.resetLocked(userID)
}

// Cancel invalidates the identity's timer. Used on disconnect; a
// cancelled timer never observably fires. The generation entry is kept
// so pending callbacks from before the cancel stay invalid forever.
func (t *ActivityTracker) Cancel(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gens[userID]++
	if timer, ok := t.timers[userID]; ok {
		timer.Stop()
		delete(t.timers, userID)
	}
}

// Armed reports whether the identity currently has a live timer
func (t *ActivityTracker) Armed(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[userID]
	return ok
}

// resetLocked bumps the generation and arms a fresh away timer.
// Caller holds t.mu.
func (t *ActivityTracker) resetLocked(userID string) {
	if timer, ok := t.timers[userID]; ok {
		timer.Stop()
	}

	t.gens[userID]++
	gen := t.gens[userID]
	t.timers[userID] = time.AfterFunc(t.awayTimeout, func() {
		t.fireAway(userID, gen)
	})
}

// fireAway handles the away deadline: mark away and arm the offline timer
func (t *ActivityTracker) fireAway(userID string, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gens[userID] != gen {
		// Stale firing, a reset or cancel won the race
		return
	}

	_ = t.presence.SetStatus(context.Background(), userID, models.StatusAway)

	t.timers[userID] = time.AfterFunc(t.offlineTimeout-t.awayTimeout, func() {
		t.fireOffline(userID, gen)
	})
}

// fireOffline handles the offline deadline: only applied when the user
// is still away, so an intervening activity makes this a no-op
func (t *ActivityTracker) fireOffline(userID string, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gens[userID] != gen {
		return
	}

	delete(t.timers, userID)

	if t.presence.Get(userID).Status == models.StatusAway {
		_ = t.presence.SetStatus(context.Background(), userID, models.StatusOffline)
	}
}
