package model

import (
	"time"
)

type Session struct {
	ID          string        `db:"id" json:"id"`
	RoomID      string        `db:"room_id" json:"roomId"`
	Mode        SessionMode   `db:"mode" json:"mode"`
	Status      SessionStatus `db:"status" json:"status"`
	EndReason   *EndReason    `db:"end_reason" json:"endReason,omitempty"`
	CommunityID *string       `db:"community_id" json:"communityId,omitempty"`

	// Pair sessions record both user ids on the row; group calls leave these
	// empty and persist session_participants rows instead.
	UserA *string `db:"user_a" json:"userA,omitempty"`
	UserB *string `db:"user_b" json:"userB,omitempty"`

	StartedAt time.Time  `db:"started_at" json:"startedAt"`
	EndedAt   *time.Time `db:"ended_at" json:"endedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`

	// Loaded separately; not a db column.
	Participants []SessionParticipant `db:"-" json:"participants,omitempty"`
}

// Active reports whether the session can still accept activity.
func (s *Session) Active() bool {
	return s.Status != SessionEnded
}

type CreateSessionParams struct {
	RoomID      string
	Mode        SessionMode
	UserA       *string
	UserB       *string
	CommunityID *string
}

type AddParticipantParams struct {
	SessionID     string
	UserID        string
	ParticipantID string
	DisplayName   string
	Role          ParticipantRole
}

// SessionParticipant is the persisted projection of a participant. Group
// calls persist one row per join; 1:1 random pairs record user ids on the
// session only.
type SessionParticipant struct {
	ID            string          `db:"id" json:"id"`
	SessionID     string          `db:"session_id" json:"sessionId"`
	UserID        string          `db:"user_id" json:"userId"`
	ParticipantID string          `db:"participant_id" json:"participantId"`
	DisplayName   string          `db:"display_name" json:"displayName"`
	Role          ParticipantRole `db:"role" json:"role"`
	JoinedAt      time.Time       `db:"joined_at" json:"joinedAt"`
	LeftAt        *time.Time      `db:"left_at" json:"leftAt,omitempty"`
}

// Participant is a user's live presence within a session. Purely in-memory,
// owned by the controller, discarded on disconnect.
type Participant struct {
	ParticipantID string            `json:"participantId"`
	UserID        string            `json:"userId"`
	DisplayName   string            `json:"displayName"`
	Role          ParticipantRole   `json:"role"`
	VideoEnabled  bool              `json:"videoEnabled"`
	AudioEnabled  bool              `json:"audioEnabled"`
	ScreenShare   bool              `json:"screenShare"`
	Quality       ConnectionQuality `json:"connectionQuality,omitempty"`
}

// QueueStatus is transient matchmaking feedback, never persisted.
type QueueStatus struct {
	Position          int           `json:"position"`
	EstimatedWaitTime time.Duration `json:"estimatedWaitTime"`
	TotalWaiting      int           `json:"totalWaiting"`
}
