package httputil

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/amogelangphejane-blip/Wuuble-sub003/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string              `json:"error"`
	Code    apperrors.ErrorCode `json:"code"`
	Details any                 `json:"details,omitempty"`
}

// WriteError writes an AppError as an HTTP response with appropriate status code
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal("An unexpected error occurred")
	}

	status := statusFromCode(appErr.Code)
	response := ErrorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	}

	WriteJSON(w, status, response)
}

// statusFromCode maps ErrorCode to HTTP status code
func statusFromCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation,
		apperrors.ErrCodeInvalidInput:
		return http.StatusBadRequest

	case apperrors.ErrCodeUnauthorized,
		apperrors.ErrCodeInvalidToken:
		return http.StatusUnauthorized

	case apperrors.ErrCodeAccountRestricted,
		apperrors.ErrCodeAccountBanned,
		apperrors.ErrCodeNotAMember,
		apperrors.ErrCodeContentBlocked:
		return http.StatusForbidden

	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound

	case apperrors.ErrCodeAlreadySearching,
		apperrors.ErrCodeAlreadyInSession,
		apperrors.ErrCodeCallFull,
		apperrors.ErrCodeCallNotAvailable,
		apperrors.ErrCodeNoActiveSession:
		return http.StatusConflict

	case apperrors.ErrCodeRateLimited,
		apperrors.ErrCodeSessionCooldown:
		return http.StatusTooManyRequests

	case apperrors.ErrCodeSignalingDisconnected,
		apperrors.ErrCodeSearchFailed:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
