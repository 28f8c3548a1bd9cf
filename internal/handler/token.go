package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/config"
	apperrors "github.com/amogelangphejane-blip/Wuuble-sub003/internal/errors"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/middleware"
)

type TokenHandler struct {
	auth *middleware.AuthMiddleware
}

func NewTokenHandler(auth *middleware.AuthMiddleware) *TokenHandler {
	return &TokenHandler{auth: auth}
}

type tokenRequest struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type tokenResponse struct {
	Token         string `json:"token"`
	ParticipantID string `json:"participantId"`
	ExpiresIn     int    `json:"expiresIn"`
}

// POST /v1/token
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "must be valid JSON"))
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.UserID == "" {
		writeError(w, apperrors.InvalidInput("userId", "must not be empty"))
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = "Anonymous"
	}

	token, participantID, err := h.auth.IssueToken(req.UserID, req.DisplayName)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue token")
		writeError(w, apperrors.Internal("Failed to issue token"))
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:         token,
		ParticipantID: participantID,
		ExpiresIn:     int(config.TokenTTL.Seconds()),
	})
}
