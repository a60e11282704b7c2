package repository

import (
	"context"

	"github.com/jgirmay/PULSE_GO/pkg/models"
)

// PresenceRepository defines the interface for presence persistence.
// The in-memory presence store is authoritative; these writes are
// best-effort mirrors and their failures never roll back memory state.
type PresenceRepository interface {
	// SavePresence creates or updates a user's presence record
	SavePresence(ctx context.Context, presence *models.Presence) error

	// GetPresence retrieves a user's persisted presence, nil when unknown
	GetPresence(ctx context.Context, userID string) (*models.Presence, error)

	// GetByStatus retrieves all user IDs with a specific status
	GetByStatus(ctx context.Context, status models.PresenceStatus) ([]string, error)
}
