package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/database"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
)

type RestrictionRepository interface {
	// FindActiveByUserID returns the current restriction for a user, nil when
	// the user is in good standing.
	FindActiveByUserID(ctx context.Context, userID string) (*model.Restriction, error)
	Create(ctx context.Context, params model.CreateRestrictionParams) (*model.Restriction, error)
	DeleteExpired(ctx context.Context) (int64, error)
	WithTx(tx *sqlx.Tx) RestrictionRepository
}

type restrictionRepo struct {
	db database.DBTX
}

func NewRestrictionRepository(db *sqlx.DB) RestrictionRepository {
	return &restrictionRepo{db: db}
}

func (r *restrictionRepo) WithTx(tx *sqlx.Tx) RestrictionRepository {
	return &restrictionRepo{db: tx}
}

func (r *restrictionRepo) FindActiveByUserID(ctx context.Context, userID string) (*model.Restriction, error) {
	var restriction model.Restriction
	err := r.db.GetContext(ctx, &restriction, `
		SELECT * FROM user_restrictions
		WHERE user_id = $1
		AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC LIMIT 1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &restriction, nil
}

func (r *restrictionRepo) Create(ctx context.Context, params model.CreateRestrictionParams) (*model.Restriction, error) {
	var restriction model.Restriction
	err := r.db.GetContext(ctx, &restriction, `
		INSERT INTO user_restrictions (user_id, reason, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.UserID, params.Reason, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &restriction, nil
}

func (r *restrictionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM user_restrictions
		WHERE expires_at IS NOT NULL AND expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
