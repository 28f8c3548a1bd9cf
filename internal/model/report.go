package model

import (
	"time"
)

// Report is immutable once created.
type Report struct {
	ID             string       `db:"id" json:"id"`
	ReporterID     string       `db:"reporter_id" json:"reporterId"`
	ReportedUserID string       `db:"reported_user_id" json:"reportedUserId"`
	Reason         ReportReason `db:"reason" json:"reason"`
	Description    *string      `db:"description" json:"description,omitempty"`
	SessionID      *string      `db:"session_id" json:"sessionId,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
}

type CreateReportParams struct {
	ReporterID     string
	ReportedUserID string
	Reason         ReportReason
	Description    *string
	SessionID      *string
}

// Restriction blocks a user from starting sessions. A nil ExpiresAt means
// permanent.
type Restriction struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"userId"`
	Reason    string     `db:"reason" json:"reason"`
	ExpiresAt *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

type CreateRestrictionParams struct {
	UserID    string
	Reason    string
	ExpiresAt *time.Time
}
