package repository

import (
	"context"

	"github.com/jgirmay/PULSE_GO/pkg/models"
)

// CallRepository defines the interface for call persistence.
// The in-memory call table is authoritative during a call's lifetime;
// rows here are the durable history.
type CallRepository interface {
	// SaveCall creates or updates the persisted row for a call session
	SaveCall(ctx context.Context, call *models.Call) error

	// GetCall retrieves a persisted call by ID, nil when unknown
	GetCall(ctx context.Context, callID string) (*models.Call, error)

	// FindCallsByUser retrieves all persisted calls where the user is
	// initiator or a named recipient, newest first
	FindCallsByUser(ctx context.Context, userID string) ([]*models.Call, error)
}
