package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Eligibility
	ErrCodeAccountRestricted ErrorCode = "ACCOUNT_RESTRICTED"
	ErrCodeAccountBanned     ErrorCode = "ACCOUNT_BANNED"
	ErrCodeNotAMember        ErrorCode = "NOT_A_MEMBER"

	// Rate limiting
	ErrCodeRateLimited     ErrorCode = "RATE_LIMITED"
	ErrCodeSessionCooldown ErrorCode = "SESSION_COOLDOWN"

	// Media
	ErrCodeMediaPermissionDenied ErrorCode = "MEDIA_PERMISSION_DENIED"

	// Matching and sessions
	ErrCodeAlreadySearching ErrorCode = "ALREADY_SEARCHING"
	ErrCodeAlreadyInSession ErrorCode = "ALREADY_IN_SESSION"
	ErrCodeNoActiveSession  ErrorCode = "NO_ACTIVE_SESSION"
	ErrCodeSearchFailed     ErrorCode = "SEARCH_FAILED"
	ErrCodeCallNotAvailable ErrorCode = "CALL_NOT_AVAILABLE"
	ErrCodeCallFull         ErrorCode = "CALL_FULL"

	// Transport
	ErrCodeSignalingDisconnected ErrorCode = "SIGNALING_DISCONNECTED"

	// Content safety
	ErrCodeContentBlocked ErrorCode = "CONTENT_BLOCKED"

	// Validation
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Auth
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors. Every rejection carries a reason specific enough
// for the client to branch on (cooldown timer vs permission prompt vs
// membership call-to-action).

func AccountRestricted(reason string) *AppError {
	if reason == "" {
		reason = "Your account is currently restricted"
	}
	return New(ErrCodeAccountRestricted, reason)
}

func AccountBanned() *AppError {
	return New(ErrCodeAccountBanned, "Your account has been banned for violating community guidelines")
}

func NotAMember(communityID string) *AppError {
	return New(ErrCodeNotAMember, "You must be a member of this community to join its calls").
		WithDetails(map[string]string{"communityId": communityID})
}

func RateLimited(action string, retryAfterSeconds int) *AppError {
	return New(ErrCodeRateLimited, fmt.Sprintf("Too many %s attempts, try again in %d seconds", action, retryAfterSeconds)).
		WithDetails(map[string]int{"retryAfterSeconds": retryAfterSeconds})
}

func SessionCooldown(retryAfterSeconds int) *AppError {
	return New(ErrCodeSessionCooldown, fmt.Sprintf("Please wait %d seconds before starting a new chat", retryAfterSeconds)).
		WithDetails(map[string]int{"retryAfterSeconds": retryAfterSeconds})
}

func MediaPermissionDenied() *AppError {
	return New(ErrCodeMediaPermissionDenied, "Camera or microphone access was denied")
}

func AlreadySearching() *AppError {
	return New(ErrCodeAlreadySearching, "A partner search is already in progress")
}

func AlreadyInSession() *AppError {
	return New(ErrCodeAlreadyInSession, "You are already in an active chat session")
}

func NoActiveSession() *AppError {
	return New(ErrCodeNoActiveSession, "No active chat session")
}

func SearchFailed(cause error) *AppError {
	return Wrap(ErrCodeSearchFailed, "Could not find a partner, please try again", cause)
}

func CallNotAvailable() *AppError {
	return New(ErrCodeCallNotAvailable, "This call is no longer available")
}

func CallFull(max int) *AppError {
	return New(ErrCodeCallFull, fmt.Sprintf("This call is full (maximum %d participants)", max))
}

func SignalingDisconnected(cause error) *AppError {
	return Wrap(ErrCodeSignalingDisconnected, "Connection to the chat service was lost", cause)
}

func ContentBlocked(reason string) *AppError {
	if reason == "" {
		reason = "Message blocked by content filter"
	}
	return New(ErrCodeContentBlocked, reason)
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func InvalidToken(message string) *AppError {
	return New(ErrCodeInvalidToken, message)
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
