package services

import (
	"context"
	"errors"

	"github.com/jgirmay/PULSE_GO/pkg/models"
)

var (
	// ErrCallNotFound indicates an unknown call ID
	ErrCallNotFound = errors.New("call not found")

	// ErrInvalidCallState indicates an operation that is not legal for
	// the call's current status
	ErrInvalidCallState = errors.New("operation not valid for current call state")
)

// CallService manages the lifecycle of call sessions. State only moves
// forward: ringing -> ongoing -> ended, with rejected as the ringing-only
// exit. Terminal sessions never transition again. Every transition
// notifies the reachable participants through the signaling relay.
type CallService interface {
	// Initiate creates a ringing call with the initiator as first
	// participant and invites every reachable recipient
	Initiate(ctx context.Context, initiator string, recipients []string, kind models.CallType, chatGroup string) (*models.Call, error)

	// Accept moves a ringing call to ongoing, stamping startTime on the
	// first acceptance, and records the acceptor as a participant
	Accept(ctx context.Context, callID, userID string) (*models.Call, error)

	// Reject declines a ringing call. Once a call is ongoing or terminal
	// the rejection fails with ErrInvalidCallState: an accept pre-empts
	// a later reject.
	Reject(ctx context.Context, callID, userID string) (*models.Call, error)

	// End terminates the call, stamping endTime and closing every open
	// participant record
	End(ctx context.Context, callID string) (*models.Call, error)

	// Leave closes the user's open participant record; the call
	// auto-ends when the last active participant leaves
	Leave(ctx context.Context, callID, userID string) (*models.Call, error)

	// History returns all calls involving the user, newest first
	History(ctx context.Context, userID string) ([]*models.Call, error)

	// Active returns the single ringing or ongoing call involving the
	// user, or nil when there is none
	Active(ctx context.Context, userID string) (*models.Call, error)
}
