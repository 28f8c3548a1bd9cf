package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/amogelangphejane-blip/Wuuble-sub003/internal/errors"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/middleware"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/service"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

type reportRequest struct {
	ReportedUserID string `json:"reportedUserId"`
	Reason         string `json:"reason"`
	Description    string `json:"description"`
	SessionID      string `json:"sessionId"`
}

// POST /v1/reports
func (h *ReportHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	participant := middleware.GetParticipant(r.Context())
	if participant == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "must be valid JSON"))
		return
	}

	params := model.CreateReportParams{
		ReporterID:     participant.UserID,
		ReportedUserID: req.ReportedUserID,
		Reason:         model.ReportReason(req.Reason),
	}
	if req.Description != "" {
		params.Description = &req.Description
	}
	if req.SessionID != "" {
		params.SessionID = &req.SessionID
	}

	report, err := h.reportService.Submit(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, report)
}
