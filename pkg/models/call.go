package models

import "time"

// CallType represents the media kind of a call
type CallType string

const (
	CallTypeAudio CallType = "audio"
	CallTypeVideo CallType = "video"
)

// CallStatus represents the lifecycle state of a call session
type CallStatus string

const (
	CallRinging  CallStatus = "ringing"
	CallOngoing  CallStatus = "ongoing"
	CallEnded    CallStatus = "ended"
	CallMissed   CallStatus = "missed"
	CallRejected CallStatus = "rejected"
)

// Terminal reports whether the status has no outgoing transitions
func (s CallStatus) Terminal() bool {
	switch s {
	case CallEnded, CallMissed, CallRejected:
		return true
	}
	return false
}

// CallParticipant records one user's attendance in a call.
// Entries are never removed; leaving only stamps LeftAt.
type CallParticipant struct {
	UserID   string     `json:"user"`
	JoinedAt time.Time  `json:"joinedAt"`
	LeftAt   *time.Time `json:"leftAt,omitempty"`
}

// Call represents a voice/video call session, distinct from the media transport
type Call struct {
	ID           string            `json:"callId"`
	Initiator    string            `json:"initiator"`
	Recipients   []string          `json:"recipients"`
	ChatGroup    string            `json:"chatGroup,omitempty"`
	Type         CallType          `json:"type"`
	Status       CallStatus        `json:"status"`
	StartTime    *time.Time        `json:"startTime,omitempty"`
	EndTime      *time.Time        `json:"endTime,omitempty"`
	Participants []CallParticipant `json:"participants"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Involves reports whether userID is the initiator or a named recipient
func (c *Call) Involves(userID string) bool {
	if c.Initiator == userID {
		return true
	}
	for _, r := range c.Recipients {
		if r == userID {
			return true
		}
	}
	return false
}

// ActiveParticipants returns the user IDs of participants who have not left
func (c *Call) ActiveParticipants() []string {
	var active []string
	for _, p := range c.Participants {
		if p.LeftAt == nil {
			active = append(active, p.UserID)
		}
	}
	return active
}
