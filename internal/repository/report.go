package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/database"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
)

type ReportRepository interface {
	Create(ctx context.Context, params model.CreateReportParams) (*model.Report, error)
	CountByReporterSince(ctx context.Context, reporterID string, since time.Time) (int, error)
	WithTx(tx *sqlx.Tx) ReportRepository
}

type reportRepo struct {
	db database.DBTX
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) WithTx(tx *sqlx.Tx) ReportRepository {
	return &reportRepo{db: tx}
}

func (r *reportRepo) Create(ctx context.Context, params model.CreateReportParams) (*model.Report, error) {
	var report model.Report
	err := r.db.GetContext(ctx, &report, `
		INSERT INTO reports (reporter_id, reported_user_id, reason, description, session_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.ReporterID, params.ReportedUserID, params.Reason, params.Description, params.SessionID)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) CountByReporterSince(ctx context.Context, reporterID string, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM reports
		WHERE reporter_id = $1 AND created_at > $2
	`, reporterID, since)
	if err != nil {
		return 0, err
	}
	return count, nil
}
