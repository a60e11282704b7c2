package models

import "time"

// ChatMessage is a decrypted chat message as served to clients
type ChatMessage struct {
	ID      string    `json:"id"`
	Room    string    `json:"chatGroup"`
	Sender  string    `json:"sender"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sentAt"`
}
