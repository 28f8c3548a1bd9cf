package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/audit"
	apperrors "github.com/amogelangphejane-blip/Wuuble-sub003/internal/errors"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/metrics"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/repository"
)

// ModerationClient is the external moderation collaborator reports are
// relayed to.
type ModerationClient interface {
	SubmitReport(ctx context.Context, params model.CreateReportParams) error
}

// ReportService submits reports to both the moderation collaborator and the
// persistence layer. Submission is best-effort: a failure never blocks the
// session termination the report triggers.
type ReportService struct {
	reportRepo repository.ReportRepository
	moderation ModerationClient
}

func NewReportService(reportRepo repository.ReportRepository, moderation ModerationClient) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		moderation: moderation,
	}
}

func (s *ReportService) Submit(ctx context.Context, params model.CreateReportParams) (*model.Report, error) {
	if !model.ValidReportReason(params.Reason) {
		return nil, apperrors.InvalidInput("reason", string(params.Reason))
	}
	if params.ReportedUserID == "" {
		return nil, apperrors.InvalidInput("reportedUserId", "must not be empty")
	}

	if s.moderation != nil {
		if err := s.moderation.SubmitReport(ctx, params); err != nil {
			log.Error().Err(err).
				Str("reporterId", params.ReporterID).
				Msg("moderation relay failed, report still persisted")
		}
	}

	report, err := s.reportRepo.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	metrics.ReportsTotal.WithLabelValues(string(params.Reason)).Inc()

	sessionID := ""
	if params.SessionID != nil {
		sessionID = *params.SessionID
	}
	audit.Log(ctx, audit.Event{
		Type:      audit.EventReportSubmitted,
		UserID:    params.ReporterID,
		SessionID: sessionID,
		Details: map[string]interface{}{
			"reportedUserId": params.ReportedUserID,
			"reason":         string(params.Reason),
		},
	})

	return report, nil
}
