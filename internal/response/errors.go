package response

import (
	"errors"
	"net/http"

	"github.com/qbank/exam-platform/internal/apperr"
)

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrConflict     ErrCode = "CONFLICT"
	ErrInvalidState ErrCode = "INVALID_STATE"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrAlreadySubmitted ErrCode = "EXAM_ALREADY_SUBMITTED"
	ErrNotSubmitted     ErrCode = "EXAM_NOT_SUBMITTED"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid username or password."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	case ErrForbidden:
		return "You are not allowed to access this resource."
	case ErrPermissionDenied:
		return "Permission denied."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrInvalidState:
		return "The resource is not in a state that allows this action."

	case ErrAlreadySubmitted:
		return "This exam has already been submitted."
	case ErrNotSubmitted:
		return "This exam has not been submitted yet."
	case ErrNoQuestions:
		return "Not enough questions match the request."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}

// Classify maps an error from the service layer to an HTTP status and code.
func Classify(err error) (int, ErrCode) {
	switch {
	case errors.Is(err, apperr.ErrAlreadySubmitted):
		return http.StatusConflict, ErrAlreadySubmitted
	case errors.Is(err, apperr.ErrNotSubmitted):
		return http.StatusConflict, ErrNotSubmitted
	case errors.Is(err, apperr.ErrNoQuestions):
		return http.StatusUnprocessableEntity, ErrNoQuestions
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, ErrNotFound
	case errors.Is(err, apperr.ErrInvalidState):
		return http.StatusConflict, ErrInvalidState
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, ErrConflict
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusUnprocessableEntity, ErrValidation
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, ErrForbidden
	default:
		return http.StatusInternalServerError, ErrInternal
	}
}
