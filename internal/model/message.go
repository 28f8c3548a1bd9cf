package model

import (
	"time"
)

// ChatMessage is a single text message within a session. Text always holds
// the post-filter content; raw pre-filter input is never stored.
type ChatMessage struct {
	ID                  string    `db:"id" json:"id"`
	SessionID           string    `db:"session_id" json:"sessionId"`
	SenderParticipantID string    `db:"sender_participant_id" json:"senderParticipantId"`
	Text                string    `db:"text" json:"text"`
	CreatedAt           time.Time `db:"created_at" json:"timestamp"`

	// Client-relative, set on the in-memory projection only.
	IsOwn bool `db:"-" json:"isOwn"`
}

type CreateMessageParams struct {
	SessionID           string
	SenderParticipantID string
	Text                string
}
