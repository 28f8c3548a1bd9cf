package model

// SessionStatus is the lifecycle state of a matched conversation.
type SessionStatus string

const (
	SessionSearching    SessionStatus = "searching"
	SessionConnecting   SessionStatus = "connecting"
	SessionConnected    SessionStatus = "connected"
	SessionReconnecting SessionStatus = "reconnecting"
	SessionEnded        SessionStatus = "ended"
)

// EndReason records why a session ended. Sessions are never deleted, only
// marked ended with a reason.
type EndReason string

const (
	EndReasonUserEnded      EndReason = "user_ended"
	EndReasonPartnerLeft    EndReason = "partner_left"
	EndReasonReported       EndReason = "reported"
	EndReasonConnectionLost EndReason = "connection_lost"
)

// SessionMode distinguishes 1:1 random pairing from community group calls.
type SessionMode string

const (
	ModeRandomPair SessionMode = "random_pair"
	ModeGroupCall  SessionMode = "group_call"
)

// ParticipantRole within a group call.
type ParticipantRole string

const (
	RoleHost        ParticipantRole = "host"
	RoleParticipant ParticipantRole = "participant"
)

// ActionKind is a rate-limited user action.
type ActionKind string

const (
	ActionConnect      ActionKind = "connect"
	ActionMessage      ActionKind = "message"
	ActionSkip         ActionKind = "skip"
	ActionReport       ActionKind = "report"
	ActionSessionStart ActionKind = "session_start"
)

// FilterAction is the safety filter's decision for a piece of content.
type FilterAction string

const (
	FilterAllow      FilterAction = "allow"
	FilterWarn       FilterAction = "warn"
	FilterEndSession FilterAction = "end_session"
	FilterBan        FilterAction = "ban"
)

// ReportReason enumerates accepted report categories.
type ReportReason string

const (
	ReportInappropriateBehavior ReportReason = "inappropriate_behavior"
	ReportHarassment            ReportReason = "harassment"
	ReportSpam                  ReportReason = "spam"
	ReportUnderage              ReportReason = "underage"
	ReportFakeProfile           ReportReason = "fake_profile"
	ReportOther                 ReportReason = "other"
)

// ValidReportReason reports whether r is one of the accepted categories.
func ValidReportReason(r ReportReason) bool {
	switch r {
	case ReportInappropriateBehavior, ReportHarassment, ReportSpam,
		ReportUnderage, ReportFakeProfile, ReportOther:
		return true
	}
	return false
}

// ConnectionQuality is the coarse signal surfaced to clients.
type ConnectionQuality string

const (
	QualityExcellent ConnectionQuality = "excellent"
	QualityGood      ConnectionQuality = "good"
	QualityFair      ConnectionQuality = "fair"
	QualityPoor      ConnectionQuality = "poor"
)
