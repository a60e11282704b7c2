package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/PULSE_GO/pkg/events"
	"github.com/jgirmay/PULSE_GO/pkg/models"
)

// relayedSignal is one captured Relay call
type relayedSignal struct {
	Kind    string
	Sender  string
	Target  string
	Payload map[string]interface{}
}

// capturingNotifier records every relayed signal
type capturingNotifier struct {
	mu      sync.Mutex
	signals []relayedSignal
}

func (n *capturingNotifier) Relay(kind, senderID, targetID string, payload map[string]interface{}) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signals = append(n.signals, relayedSignal{Kind: kind, Sender: senderID, Target: targetID, Payload: payload})
	return true
}

func (n *capturingNotifier) byKind(kind string) []relayedSignal {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []relayedSignal
	for _, s := range n.signals {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func TestCallInitiate(t *testing.T) {
	notifier := &capturingNotifier{}
	svc := NewCallService(nil, notifier)

	call, err := svc.Initiate(context.Background(), "alice", []string{"bob", "carol"}, models.CallTypeVideo, "team")
	require.NoError(t, err)

	assert.NotEmpty(t, call.ID)
	assert.Equal(t, models.CallRinging, call.Status)
	assert.Equal(t, "alice", call.Initiator)
	assert.Equal(t, "team", call.ChatGroup)
	assert.Nil(t, call.StartTime)

	// The initiator joins immediately; recipients only on accept
	require.Len(t, call.Participants, 1)
	assert.Equal(t, "alice", call.Participants[0].UserID)

	invites := notifier.byKind(events.EventIncomingCall)
	require.Len(t, invites, 2)
	targets := []string{invites[0].Target, invites[1].Target}
	assert.ElementsMatch(t, []string{"bob", "carol"}, targets)
	assert.Equal(t, call.ID, invites[0].Payload["callId"])
	assert.Equal(t, "alice", invites[0].Payload["caller"])
	assert.Equal(t, "video", invites[0].Payload["type"])
}

func TestCallAcceptStampsStartTimeOnce(t *testing.T) {
	notifier := &capturingNotifier{}
	svc := NewCallService(nil, notifier)

	call, err := svc.Initiate(context.Background(), "alice", []string{"bob", "carol"}, models.CallTypeAudio, "")
	require.NoError(t, err)

	accepted, err := svc.Accept(context.Background(), call.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.CallOngoing, accepted.Status)
	require.NotNil(t, accepted.StartTime)
	first := *accepted.StartTime

	// A second acceptance joins the call without moving startTime
	accepted, err = svc.Accept(context.Background(), call.ID, "carol")
	require.NoError(t, err)
	require.NotNil(t, accepted.StartTime)
	assert.Equal(t, first, *accepted.StartTime)
	assert.Len(t, accepted.Participants, 3)

	// The initiator hears about each acceptance
	notices := notifier.byKind(events.EventCallAccepted)
	require.Len(t, notices, 2)
	assert.Equal(t, "alice", notices[0].Target)
	assert.Equal(t, "bob", notices[0].Payload["acceptor"])
}

func TestCallAcceptUnknownCall(t *testing.T) {
	svc := NewCallService(nil, nil)

	_, err := svc.Accept(context.Background(), "no-such-call", "bob")
	assert.ErrorIs(t, err, ErrCallNotFound)
}

func TestCallRejectOnlyWhileRinging(t *testing.T) {
	notifier := &capturingNotifier{}
	svc := NewCallService(nil, notifier)

	call, err := svc.Initiate(context.Background(), "alice", []string{"bob", "carol"}, models.CallTypeAudio, "")
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), call.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.CallRejected, rejected.Status)

	notices := notifier.byKind(events.EventCallRejected)
	require.Len(t, notices, 1)
	assert.Equal(t, "alice", notices[0].Target)
	assert.Equal(t, "bob", notices[0].Payload["rejector"])

	// Rejected is terminal
	_, err = svc.Reject(context.Background(), call.ID, "carol")
	assert.ErrorIs(t, err, ErrInvalidCallState)
}

func TestCallAcceptPreemptsReject(t *testing.T) {
	svc := NewCallService(nil, nil)

	call, err := svc.Initiate(context.Background(), "alice", []string{"bob", "carol"}, models.CallTypeAudio, "")
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), call.ID, "bob")
	require.NoError(t, err)

	// carol's reject arrives after bob's accept and must not tear down
	// the ongoing call
	_, err = svc.Reject(context.Background(), call.ID, "carol")
	assert.ErrorIs(t, err, ErrInvalidCallState)

	active, err := svc.Active(context.Background(), "bob")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, models.CallOngoing, active.Status)
}

func TestCallEndClosesEveryParticipant(t *testing.T) {
	notifier := &capturingNotifier{}
	svc := NewCallService(nil, notifier)

	call, err := svc.Initiate(context.Background(), "alice", []string{"bob"}, models.CallTypeVideo, "")
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), call.ID, "bob")
	require.NoError(t, err)

	ended, err := svc.End(context.Background(), call.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallEnded, ended.Status)
	require.NotNil(t, ended.EndTime)
	for _, p := range ended.Participants {
		assert.NotNil(t, p.LeftAt, "participant %s should be closed", p.UserID)
	}

	notices := notifier.byKind(events.EventCallEnded)
	require.Len(t, notices, 2)
	targets := []string{notices[0].Target, notices[1].Target}
	assert.ElementsMatch(t, []string{"alice", "bob"}, targets)

	// Ending twice is rejected and endTime is untouched
	_, err = svc.End(context.Background(), call.ID)
	assert.ErrorIs(t, err, ErrInvalidCallState)
}

func TestCallLeaveAutoEndsWhenEmpty(t *testing.T) {
	svc := NewCallService(nil, nil)

	call, err := svc.Initiate(context.Background(), "alice", []string{"bob"}, models.CallTypeAudio, "")
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), call.ID, "bob")
	require.NoError(t, err)

	after, err := svc.Leave(context.Background(), call.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.CallOngoing, after.Status)
	assert.Len(t, after.ActiveParticipants(), 1)

	after, err = svc.Leave(context.Background(), call.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.CallEnded, after.Status)
	assert.NotNil(t, after.EndTime)
}

func TestCallActiveCoversRingingRecipients(t *testing.T) {
	svc := NewCallService(nil, nil)

	call, err := svc.Initiate(context.Background(), "alice", []string{"bob"}, models.CallTypeAudio, "")
	require.NoError(t, err)

	// bob has not accepted yet but is still attached to a ringing call
	active, err := svc.Active(context.Background(), "bob")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, call.ID, active.ID)

	active, err = svc.Active(context.Background(), "mallory")
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = svc.End(context.Background(), call.ID)
	require.NoError(t, err)

	active, err = svc.Active(context.Background(), "bob")
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestCallHistoryNewestFirst(t *testing.T) {
	svc := NewCallService(nil, nil)

	first, err := svc.Initiate(context.Background(), "alice", []string{"bob"}, models.CallTypeAudio, "")
	require.NoError(t, err)
	_, err = svc.End(context.Background(), first.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	second, err := svc.Initiate(context.Background(), "alice", []string{"carol"}, models.CallTypeVideo, "")
	require.NoError(t, err)

	history, err := svc.History(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)

	// bob only ever saw the first call
	history, err = svc.History(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, first.ID, history[0].ID)
}

func TestCallSnapshotsAreIsolated(t *testing.T) {
	svc := NewCallService(nil, nil)

	call, err := svc.Initiate(context.Background(), "alice", []string{"bob"}, models.CallTypeAudio, "")
	require.NoError(t, err)

	// Mutating the returned snapshot must not leak into service state
	call.Status = models.CallEnded
	call.Recipients[0] = "mallory"

	active, err := svc.Active(context.Background(), "bob")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, models.CallRinging, active.Status)
	assert.Equal(t, []string{"bob"}, active.Recipients)
}
