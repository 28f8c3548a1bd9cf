package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/amogelangphejane-blip/Wuuble-sub003/internal/errors"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/metrics"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/repository"
)

// SessionService owns session persistence: creating records when matches are
// confirmed, group-call membership and capacity gates, and marking sessions
// ended. Session rows are never deleted.
type SessionService struct {
	sessionRepo     repository.SessionRepository
	membershipRepo  repository.MembershipRepository
	maxParticipants int
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	membershipRepo repository.MembershipRepository,
	maxParticipants int,
) *SessionService {
	return &SessionService{
		sessionRepo:     sessionRepo,
		membershipRepo:  membershipRepo,
		maxParticipants: maxParticipants,
	}
}

// CreatePairSession records a confirmed 1:1 match. Pair sessions do not
// persist participant rows; both user ids live on the session itself.
func (s *SessionService) CreatePairSession(ctx context.Context, roomID, userA, userB string) (*model.Session, error) {
	session, err := s.sessionRepo.Create(ctx, model.CreateSessionParams{
		RoomID: roomID,
		Mode:   model.ModeRandomPair,
		UserA:  &userA,
		UserB:  &userB,
	})
	if err != nil {
		return nil, fmt.Errorf("create pair session: %w", err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("roomId", roomID).
		Msg("pair session created")

	return session, nil
}

// CreateGroupCall starts a community call hosted by the given participant.
func (s *SessionService) CreateGroupCall(ctx context.Context, communityID string, host model.Participant) (*model.Session, error) {
	member, err := s.membershipRepo.IsMember(ctx, communityID, host.UserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if !member {
		return nil, apperrors.NotAMember(communityID)
	}

	var session *model.Session
	session, err = s.sessionRepo.Create(ctx, model.CreateSessionParams{
		RoomID:      fmt.Sprintf("group:%s", host.ParticipantID),
		Mode:        model.ModeGroupCall,
		CommunityID: &communityID,
	})
	if err != nil {
		return nil, fmt.Errorf("create group call: %w", err)
	}

	host.Role = model.RoleHost
	if _, err := s.addParticipant(ctx, session.ID, host); err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("communityId", communityID).
		Str("hostUserId", host.UserID).
		Msg("group call created")

	return session, nil
}

// JoinGroupCall admits a participant to an existing call. Group calls, unlike
// random pairs, persist a participant row per join.
func (s *SessionService) JoinGroupCall(ctx context.Context, callID string, p model.Participant) (*model.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, callID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil || !session.Active() || session.Mode != model.ModeGroupCall {
		return nil, apperrors.CallNotAvailable()
	}

	if session.CommunityID != nil {
		member, err := s.membershipRepo.IsMember(ctx, *session.CommunityID, p.UserID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if !member {
			return nil, apperrors.NotAMember(*session.CommunityID)
		}
	}

	count, err := s.sessionRepo.CountActiveParticipants(ctx, session.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if count >= s.maxParticipants {
		return nil, apperrors.CallFull(s.maxParticipants)
	}

	p.Role = model.RoleParticipant
	if _, err := s.addParticipant(ctx, session.ID, p); err != nil {
		return nil, err
	}

	return session, nil
}

// LeaveGroupCall marks the participant gone and ends the call when the last
// participant leaves.
func (s *SessionService) LeaveGroupCall(ctx context.Context, sessionID, participantID string) error {
	if err := s.sessionRepo.MarkParticipantLeft(ctx, sessionID, participantID); err != nil {
		return apperrors.Database(err)
	}

	count, err := s.sessionRepo.CountActiveParticipants(ctx, sessionID)
	if err != nil {
		return apperrors.Database(err)
	}
	if count == 0 {
		return s.End(ctx, sessionID, model.EndReasonUserEnded)
	}
	return nil
}

// End marks a session ended. Idempotent: re-ending keeps the first reason.
func (s *SessionService) End(ctx context.Context, sessionID string, reason model.EndReason) error {
	if err := s.sessionRepo.MarkEnded(ctx, sessionID, reason); err != nil {
		return apperrors.Database(err)
	}

	metrics.SessionsEndedTotal.WithLabelValues(string(reason)).Inc()
	log.Info().
		Str("sessionId", sessionID).
		Str("reason", string(reason)).
		Msg("session ended")
	return nil
}

// FindByRoomID resolves the session backing a signaling room, nil when absent.
func (s *SessionService) FindByRoomID(ctx context.Context, roomID string) (*model.Session, error) {
	session, err := s.sessionRepo.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return session, nil
}

// Find returns the session with participants loaded, nil when absent.
func (s *SessionService) Find(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, nil
	}

	if session.Mode == model.ModeGroupCall {
		participants, err := s.sessionRepo.ListParticipants(ctx, session.ID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		session.Participants = participants
	}
	return session, nil
}

func (s *SessionService) addParticipant(ctx context.Context, sessionID string, p model.Participant) (*model.SessionParticipant, error) {
	participant, err := s.sessionRepo.AddParticipant(ctx, model.AddParticipantParams{
		SessionID:     sessionID,
		UserID:        p.UserID,
		ParticipantID: p.ParticipantID,
		DisplayName:   p.DisplayName,
		Role:          p.Role,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return participant, nil
}
