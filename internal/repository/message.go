package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/database"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
)

type MessageRepository interface {
	Create(ctx context.Context, params model.CreateMessageParams) (*model.ChatMessage, error)
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]model.ChatMessage, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
	WithTx(tx *sqlx.Tx) MessageRepository
}

type messageRepo struct {
	db database.DBTX
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) WithTx(tx *sqlx.Tx) MessageRepository {
	return &messageRepo{db: tx}
}

func (r *messageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.ChatMessage, error) {
	var message model.ChatMessage
	err := r.db.GetContext(ctx, &message, `
		INSERT INTO chat_messages (session_id, sender_participant_id, text)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.SessionID, params.SenderParticipantID, params.Text)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepo) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]model.ChatMessage, error) {
	messages := []model.ChatMessage{}
	err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM chat_messages WHERE session_id = $1
	`, sessionID)
	if err != nil {
		return 0, err
	}
	return count, nil
}
