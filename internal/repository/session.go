package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/database"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	FindByRoomID(ctx context.Context, roomID string) (*model.Session, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	// MarkEnded is idempotent: an already-ended session keeps its original
	// reason and timestamps.
	MarkEnded(ctx context.Context, id string, reason model.EndReason) error
	AddParticipant(ctx context.Context, params model.AddParticipantParams) (*model.SessionParticipant, error)
	MarkParticipantLeft(ctx context.Context, sessionID, participantID string) error
	CountActiveParticipants(ctx context.Context, sessionID string) (int, error)
	ListParticipants(ctx context.Context, sessionID string) ([]model.SessionParticipant, error)
	// EndStale marks sessions ended with reason connection_lost when they have
	// seen no update for longer than idleTTL.
	EndStale(ctx context.Context, idleTTL time.Duration) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRepo struct {
	db database.DBTX
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) FindByRoomID(ctx context.Context, roomID string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE room_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (room_id, mode, status, user_a, user_b, community_id, started_at)
		VALUES ($1, $2, 'connected', $3, $4, $5, NOW())
		RETURNING *
	`, params.RoomID, params.Mode, params.UserA, params.UserB, params.CommunityID)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) MarkEnded(ctx context.Context, id string, reason model.EndReason) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			status = 'ended',
			end_reason = $2,
			ended_at = $3,
			updated_at = $3
		WHERE id = $1 AND status != 'ended'
	`, id, reason, time.Now())
	return err
}

func (r *sessionRepo) AddParticipant(ctx context.Context, params model.AddParticipantParams) (*model.SessionParticipant, error) {
	var participant model.SessionParticipant
	err := r.db.GetContext(ctx, &participant, `
		INSERT INTO session_participants (session_id, user_id, participant_id, display_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.SessionID, params.UserID, params.ParticipantID, params.DisplayName, params.Role)
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *sessionRepo) MarkParticipantLeft(ctx context.Context, sessionID, participantID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE session_participants SET left_at = $3
		WHERE session_id = $1 AND participant_id = $2 AND left_at IS NULL
	`, sessionID, participantID, time.Now())
	return err
}

func (r *sessionRepo) CountActiveParticipants(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM session_participants
		WHERE session_id = $1 AND left_at IS NULL
	`, sessionID)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *sessionRepo) ListParticipants(ctx context.Context, sessionID string) ([]model.SessionParticipant, error) {
	participants := []model.SessionParticipant{}
	err := r.db.SelectContext(ctx, &participants, `
		SELECT * FROM session_participants
		WHERE session_id = $1
		ORDER BY joined_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *sessionRepo) EndStale(ctx context.Context, idleTTL time.Duration) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			status = 'ended',
			end_reason = 'connection_lost',
			ended_at = NOW(),
			updated_at = NOW()
		WHERE status != 'ended' AND updated_at < NOW() - $1::interval
	`, idleTTL.String())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
