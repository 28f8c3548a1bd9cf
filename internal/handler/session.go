package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/amogelangphejane-blip/Wuuble-sub003/internal/errors"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
	messageService *service.MessageService
}

func NewSessionHandler(sessionService *service.SessionService, messageService *service.MessageService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		messageService: messageService,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{sessionID}", h.GetSession)
	r.Get("/{sessionID}/messages", h.GetMessages)

	return r
}

// GET /v1/sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, apperrors.InvalidInput("sessionID", "must not be empty"))
		return
	}

	session, err := h.sessionService.Find(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to load session")
		writeError(w, err)
		return
	}
	if session == nil {
		writeError(w, apperrors.NotFound("Session"))
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// GET /v1/sessions/{sessionID}/messages?limit=50&offset=0
func (h *SessionHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, apperrors.InvalidInput("sessionID", "must not be empty"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	messages, err := h.messageService.History(r.Context(), sessionID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to load messages")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"limit":    limit,
		"offset":   offset,
	})
}
