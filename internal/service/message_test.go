package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/repository"
)

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.ChatMessage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatMessage), args.Error(1)
}

func (m *mockMessageRepo) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]model.ChatMessage, error) {
	args := m.Called(ctx, sessionID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *mockMessageRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *mockMessageRepo) WithTx(tx *sqlx.Tx) repository.MessageRepository {
	return m
}

func TestMessageService_Persist(t *testing.T) {
	t.Run("stores the message asynchronously", func(t *testing.T) {
		repo := new(mockMessageRepo)
		done := make(chan struct{})
		repo.On("Create", mock.Anything, model.CreateMessageParams{
			SessionID:           "sess-1",
			SenderParticipantID: "p-1",
			Text:                "hello",
		}).Run(func(mock.Arguments) { close(done) }).Return(&model.ChatMessage{ID: "msg-1"}, nil)

		svc := NewMessageService(repo)
		svc.Persist("sess-1", "p-1", "hello")

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("message was never persisted")
		}
		repo.AssertExpectations(t)
	})

	t.Run("a failing store never panics the caller", func(t *testing.T) {
		repo := new(mockMessageRepo)
		done := make(chan struct{})
		repo.On("Create", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { close(done) }).
			Return(nil, assert.AnError)

		svc := NewMessageService(repo)
		svc.Persist("sess-1", "p-1", "hello")

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("store was never called")
		}
	})
}

func TestMessageService_History(t *testing.T) {
	ctx := context.Background()

	t.Run("passes limit and offset through", func(t *testing.T) {
		repo := new(mockMessageRepo)
		repo.On("ListBySession", ctx, "sess-1", 20, 40).
			Return([]model.ChatMessage{{ID: "msg-1"}}, nil)

		svc := NewMessageService(repo)
		msgs, err := svc.History(ctx, "sess-1", 20, 40)

		require.NoError(t, err)
		assert.Len(t, msgs, 1)
		repo.AssertExpectations(t)
	})

	t.Run("clamps out-of-range limits to the default", func(t *testing.T) {
		repo := new(mockMessageRepo)
		repo.On("ListBySession", ctx, "sess-1", 50, 0).
			Return([]model.ChatMessage{}, nil).Twice()

		svc := NewMessageService(repo)

		_, err := svc.History(ctx, "sess-1", 0, 0)
		require.NoError(t, err)
		_, err = svc.History(ctx, "sess-1", 500, 0)
		require.NoError(t, err)

		repo.AssertExpectations(t)
	})
}
