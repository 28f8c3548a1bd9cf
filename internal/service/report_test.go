package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/amogelangphejane-blip/Wuuble-sub003/internal/errors"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/repository"
)

type mockReportRepo struct {
	mock.Mock
}

func (m *mockReportRepo) Create(ctx context.Context, params model.CreateReportParams) (*model.Report, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *mockReportRepo) CountByReporterSince(ctx context.Context, reporterID string, since time.Time) (int, error) {
	args := m.Called(ctx, reporterID, since)
	return args.Int(0), args.Error(1)
}

func (m *mockReportRepo) WithTx(tx *sqlx.Tx) repository.ReportRepository {
	return m
}

type mockModeration struct {
	mock.Mock
}

func (m *mockModeration) SubmitReport(ctx context.Context, params model.CreateReportParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func validReport() model.CreateReportParams {
	return model.CreateReportParams{
		ReporterID:     "user-1",
		ReportedUserID: "user-2",
		Reason:         model.ReportHarassment,
	}
}

func TestReportService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a valid report", func(t *testing.T) {
		repo := new(mockReportRepo)
		repo.On("Create", ctx, validReport()).Return(&model.Report{ID: "rep-1"}, nil)

		svc := NewReportService(repo, nil)
		report, err := svc.Submit(ctx, validReport())

		require.NoError(t, err)
		assert.Equal(t, "rep-1", report.ID)
		repo.AssertExpectations(t)
	})

	t.Run("rejects an invalid reason", func(t *testing.T) {
		svc := NewReportService(new(mockReportRepo), nil)

		params := validReport()
		params.Reason = model.ReportReason("made-up")
		_, err := svc.Submit(ctx, params)

		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("rejects a missing reported user", func(t *testing.T) {
		svc := NewReportService(new(mockReportRepo), nil)

		params := validReport()
		params.ReportedUserID = ""
		_, err := svc.Submit(ctx, params)

		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("relays to moderation before persisting", func(t *testing.T) {
		moderation := new(mockModeration)
		moderation.On("SubmitReport", ctx, validReport()).Return(nil)
		repo := new(mockReportRepo)
		repo.On("Create", ctx, validReport()).Return(&model.Report{ID: "rep-1"}, nil)

		svc := NewReportService(repo, moderation)
		_, err := svc.Submit(ctx, validReport())

		require.NoError(t, err)
		moderation.AssertExpectations(t)
	})

	t.Run("moderation failure does not block persistence", func(t *testing.T) {
		moderation := new(mockModeration)
		moderation.On("SubmitReport", ctx, mock.Anything).Return(assert.AnError)
		repo := new(mockReportRepo)
		repo.On("Create", ctx, validReport()).Return(&model.Report{ID: "rep-1"}, nil)

		svc := NewReportService(repo, moderation)
		report, err := svc.Submit(ctx, validReport())

		require.NoError(t, err)
		assert.Equal(t, "rep-1", report.ID)
	})

	t.Run("database failure surfaces as an error", func(t *testing.T) {
		repo := new(mockReportRepo)
		repo.On("Create", ctx, mock.Anything).Return(nil, assert.AnError)

		svc := NewReportService(repo, nil)
		_, err := svc.Submit(ctx, validReport())

		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
	})
}
