package models

import "time"

// PresenceStatus represents the coarse liveness classification of a user
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusOffline PresenceStatus = "offline"
)

// Valid reports whether s is one of the known presence statuses
func (s PresenceStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusOffline:
		return true
	}
	return false
}

// Presence represents a user's current presence record.
// LastActive is the moment the user was last seen active and is only
// stamped when the user goes offline; LastSeen moves on every update.
type Presence struct {
	UserID     string         `json:"userId"`
	Status     PresenceStatus `json:"status"`
	LastActive time.Time      `json:"lastActive"`
	LastSeen   time.Time      `json:"lastSeen"`
}
