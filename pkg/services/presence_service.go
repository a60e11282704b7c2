package services

import (
	"context"

	"github.com/jgirmay/PULSE_GO/pkg/models"
)

// PresenceService owns the in-memory presence state for all known users.
// Updates are pushed to every connected session and mirrored to the
// persistence collaborator on a best-effort basis.
type PresenceService interface {
	// SetStatus overwrites the user's status. Idempotent; stamps lastSeen on
	// every call and lastActive only when going offline. Every call emits a
	// user_status_change broadcast.
	SetStatus(ctx context.Context, userID string, status models.PresenceStatus) error

	// Get returns the user's current record, or a default offline record
	// when the user has never connected
	Get(userID string) models.Presence

	// OnlineUsers returns the IDs of all users currently marked online
	OnlineUsers() []string
}
