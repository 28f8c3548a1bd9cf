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

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) FindByRoomID(ctx context.Context, roomID string) (*model.Session, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) MarkEnded(ctx context.Context, id string, reason model.EndReason) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockSessionRepo) AddParticipant(ctx context.Context, params model.AddParticipantParams) (*model.SessionParticipant, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SessionParticipant), args.Error(1)
}

func (m *mockSessionRepo) MarkParticipantLeft(ctx context.Context, sessionID, participantID string) error {
	args := m.Called(ctx, sessionID, participantID)
	return args.Error(0)
}

func (m *mockSessionRepo) CountActiveParticipants(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionRepo) ListParticipants(ctx context.Context, sessionID string) ([]model.SessionParticipant, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SessionParticipant), args.Error(1)
}

func (m *mockSessionRepo) EndStale(ctx context.Context, idleTTL time.Duration) (int64, error) {
	args := m.Called(ctx, idleTTL)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return m
}

type mockMembershipRepo struct {
	mock.Mock
}

func (m *mockMembershipRepo) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	args := m.Called(ctx, communityID, userID)
	return args.Bool(0), args.Error(1)
}

func host() model.Participant {
	return model.Participant{
		ParticipantID: "p-host",
		UserID:        "user-host",
		DisplayName:   "Host",
	}
}

func TestSessionService_CreatePairSession(t *testing.T) {
	ctx := context.Background()

	repo := new(mockSessionRepo)
	repo.On("Create", ctx, mock.MatchedBy(func(p model.CreateSessionParams) bool {
		return p.RoomID == "room-1" &&
			p.Mode == model.ModeRandomPair &&
			p.UserA != nil && *p.UserA == "user-a" &&
			p.UserB != nil && *p.UserB == "user-b"
	})).Return(&model.Session{ID: "sess-1", RoomID: "room-1"}, nil)

	svc := NewSessionService(repo, new(mockMembershipRepo), 8)
	session, err := svc.CreatePairSession(ctx, "room-1", "user-a", "user-b")

	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.ID)
	repo.AssertExpectations(t)
}

func TestSessionService_CreateGroupCall(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a non-member host", func(t *testing.T) {
		members := new(mockMembershipRepo)
		members.On("IsMember", ctx, "comm-1", "user-host").Return(false, nil)

		svc := NewSessionService(new(mockSessionRepo), members, 8)
		_, err := svc.CreateGroupCall(ctx, "comm-1", host())

		assert.Equal(t, apperrors.ErrCodeNotAMember, apperrors.GetCode(err))
	})

	t.Run("creates the call and persists the host row", func(t *testing.T) {
		members := new(mockMembershipRepo)
		members.On("IsMember", ctx, "comm-1", "user-host").Return(true, nil)

		repo := new(mockSessionRepo)
		repo.On("Create", ctx, mock.MatchedBy(func(p model.CreateSessionParams) bool {
			return p.RoomID == "group:p-host" &&
				p.Mode == model.ModeGroupCall &&
				p.CommunityID != nil && *p.CommunityID == "comm-1"
		})).Return(&model.Session{ID: "sess-1", RoomID: "group:p-host"}, nil)
		repo.On("AddParticipant", ctx, mock.MatchedBy(func(p model.AddParticipantParams) bool {
			return p.SessionID == "sess-1" && p.Role == model.RoleHost
		})).Return(&model.SessionParticipant{}, nil)

		svc := NewSessionService(repo, members, 8)
		session, err := svc.CreateGroupCall(ctx, "comm-1", host())

		require.NoError(t, err)
		assert.Equal(t, "group:p-host", session.RoomID)
		repo.AssertExpectations(t)
	})
}

func TestSessionService_JoinGroupCall(t *testing.T) {
	ctx := context.Background()
	communityID := "comm-1"

	activeCall := func() *model.Session {
		return &model.Session{
			ID:          "sess-1",
			RoomID:      "group:p-host",
			Mode:        model.ModeGroupCall,
			Status:      model.SessionConnected,
			CommunityID: &communityID,
		}
	}

	joiner := model.Participant{ParticipantID: "p-2", UserID: "user-2"}

	t.Run("unknown call is not available", func(t *testing.T) {
		repo := new(mockSessionRepo)
		repo.On("FindByID", ctx, "sess-x").Return(nil, nil)

		svc := NewSessionService(repo, new(mockMembershipRepo), 8)
		_, err := svc.JoinGroupCall(ctx, "sess-x", joiner)

		assert.Equal(t, apperrors.ErrCodeCallNotAvailable, apperrors.GetCode(err))
	})

	t.Run("ended call is not available", func(t *testing.T) {
		ended := activeCall()
		ended.Status = model.SessionEnded
		repo := new(mockSessionRepo)
		repo.On("FindByID", ctx, "sess-1").Return(ended, nil)

		svc := NewSessionService(repo, new(mockMembershipRepo), 8)
		_, err := svc.JoinGroupCall(ctx, "sess-1", joiner)

		assert.Equal(t, apperrors.ErrCodeCallNotAvailable, apperrors.GetCode(err))
	})

	t.Run("pair sessions cannot be joined as calls", func(t *testing.T) {
		pair := activeCall()
		pair.Mode = model.ModeRandomPair
		repo := new(mockSessionRepo)
		repo.On("FindByID", ctx, "sess-1").Return(pair, nil)

		svc := NewSessionService(repo, new(mockMembershipRepo), 8)
		_, err := svc.JoinGroupCall(ctx, "sess-1", joiner)

		assert.Equal(t, apperrors.ErrCodeCallNotAvailable, apperrors.GetCode(err))
	})

	t.Run("rejects a non-member", func(t *testing.T) {
		repo := new(mockSessionRepo)
		repo.On("FindByID", ctx, "sess-1").Return(activeCall(), nil)
		members := new(mockMembershipRepo)
		members.On("IsMember", ctx, communityID, "user-2").Return(false, nil)

		svc := NewSessionService(repo, members, 8)
		_, err := svc.JoinGroupCall(ctx, "sess-1", joiner)

		assert.Equal(t, apperrors.ErrCodeNotAMember, apperrors.GetCode(err))
	})

	t.Run("rejects when the call is full", func(t *testing.T) {
		repo := new(mockSessionRepo)
		repo.On("FindByID", ctx, "sess-1").Return(activeCall(), nil)
		repo.On("CountActiveParticipants", ctx, "sess-1").Return(8, nil)
		members := new(mockMembershipRepo)
		members.On("IsMember", ctx, communityID, "user-2").Return(true, nil)

		svc := NewSessionService(repo, members, 8)
		_, err := svc.JoinGroupCall(ctx, "sess-1", joiner)

		assert.Equal(t, apperrors.ErrCodeCallFull, apperrors.GetCode(err))
	})

	t.Run("admits a member below capacity", func(t *testing.T) {
		repo := new(mockSessionRepo)
		repo.On("FindByID", ctx, "sess-1").Return(activeCall(), nil)
		repo.On("CountActiveParticipants", ctx, "sess-1").Return(3, nil)
		repo.On("AddParticipant", ctx, mock.MatchedBy(func(p model.AddParticipantParams) bool {
			return p.SessionID == "sess-1" && p.Role == model.RoleParticipant
		})).Return(&model.SessionParticipant{}, nil)
		members := new(mockMembershipRepo)
		members.On("IsMember", ctx, communityID, "user-2").Return(true, nil)

		svc := NewSessionService(repo, members, 8)
		session, err := svc.JoinGroupCall(ctx, "sess-1", joiner)

		require.NoError(t, err)
		assert.Equal(t, "sess-1", session.ID)
		repo.AssertExpectations(t)
	})
}

func TestSessionService_LeaveGroupCall(t *testing.T) {
	ctx := context.Background()

	t.Run("leaving with others present keeps the call alive", func(t *testing.T) {
		repo := new(mockSessionRepo)
		repo.On("MarkParticipantLeft", ctx, "sess-1", "p-2").Return(nil)
		repo.On("CountActiveParticipants", ctx, "sess-1").Return(2, nil)

		svc := NewSessionService(repo, new(mockMembershipRepo), 8)
		require.NoError(t, svc.LeaveGroupCall(ctx, "sess-1", "p-2"))

		repo.AssertNotCalled(t, "MarkEnded", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("last participant out ends the call", func(t *testing.T) {
		repo := new(mockSessionRepo)
		repo.On("MarkParticipantLeft", ctx, "sess-1", "p-2").Return(nil)
		repo.On("CountActiveParticipants", ctx, "sess-1").Return(0, nil)
		repo.On("MarkEnded", ctx, "sess-1", model.EndReasonUserEnded).Return(nil)

		svc := NewSessionService(repo, new(mockMembershipRepo), 8)
		require.NoError(t, svc.LeaveGroupCall(ctx, "sess-1", "p-2"))

		repo.AssertExpectations(t)
	})
}

func TestSessionService_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("missing session yields nil without error", func(t *testing.T) {
		repo := new(mockSessionRepo)
		repo.On("FindByID", ctx, "sess-x").Return(nil, nil)

		svc := NewSessionService(repo, new(mockMembershipRepo), 8)
		session, err := svc.Find(ctx, "sess-x")

		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("group call loads its participants", func(t *testing.T) {
		repo := new(mockSessionRepo)
		repo.On("FindByID", ctx, "sess-1").Return(&model.Session{
			ID:   "sess-1",
			Mode: model.ModeGroupCall,
		}, nil)
		repo.On("ListParticipants", ctx, "sess-1").Return([]model.SessionParticipant{
			{ParticipantID: "p-1"}, {ParticipantID: "p-2"},
		}, nil)

		svc := NewSessionService(repo, new(mockMembershipRepo), 8)
		session, err := svc.Find(ctx, "sess-1")

		require.NoError(t, err)
		assert.Len(t, session.Participants, 2)
	})

	t.Run("pair session skips the participant query", func(t *testing.T) {
		repo := new(mockSessionRepo)
		repo.On("FindByID", ctx, "sess-1").Return(&model.Session{
			ID:   "sess-1",
			Mode: model.ModeRandomPair,
		}, nil)

		svc := NewSessionService(repo, new(mockMembershipRepo), 8)
		session, err := svc.Find(ctx, "sess-1")

		require.NoError(t, err)
		assert.Empty(t, session.Participants)
		repo.AssertNotCalled(t, "ListParticipants", mock.Anything, mock.Anything)
	})
}
