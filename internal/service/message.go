package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/repository"
)

const persistTimeout = 5 * time.Second

// MessageService persists chat messages. Persistence is deliberately
// fire-and-forget: local responsiveness wins over durability, so failures
// are logged and never surfaced to the sender.
type MessageService struct {
	messageRepo repository.MessageRepository
}

func NewMessageService(messageRepo repository.MessageRepository) *MessageService {
	return &MessageService{messageRepo: messageRepo}
}

// Persist stores the filtered message text asynchronously. The text must
// already have passed the safety filter.
func (s *MessageService) Persist(sessionID, senderParticipantID, text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		_, err := s.messageRepo.Create(ctx, model.CreateMessageParams{
			SessionID:           sessionID,
			SenderParticipantID: senderParticipantID,
			Text:                text,
		})
		if err != nil {
			log.Error().Err(err).
				Str("sessionId", sessionID).
				Msg("failed to persist chat message")
		}
	}()
}

// History lists persisted messages for a session, oldest first.
func (s *MessageService) History(ctx context.Context, sessionID string, limit, offset int) ([]model.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.messageRepo.ListBySession(ctx, sessionID, limit, offset)
}
