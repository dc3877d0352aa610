package response

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput   = "INVALID_INPUT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeInvalidState   = "INVALID_STATE"
	CodeNotImplemented = "NOT_IMPLEMENTED"
	CodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	CodeUpstreamError  = "UPSTREAM_ERROR"
	CodeInternalError  = "INTERNAL_ERROR"
)

// WriteJSON writes a JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteDomainError maps a domain error kind to its HTTP status and
// error code. Unknown kinds become 500 without leaking the cause.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		WriteError(w, http.StatusBadRequest, domain.MessageOf(err), CodeInvalidInput)
	case domain.KindAuth:
		WriteError(w, http.StatusUnauthorized, domain.MessageOf(err), CodeUnauthorized)
	case domain.KindForbidden:
		WriteError(w, http.StatusForbidden, domain.MessageOf(err), CodeForbidden)
	case domain.KindNotFound:
		WriteError(w, http.StatusNotFound, domain.MessageOf(err), CodeNotFound)
	case domain.KindConflict:
		WriteError(w, http.StatusConflict, domain.MessageOf(err), CodeConflict)
	case domain.KindInvalidState:
		WriteError(w, http.StatusBadRequest, domain.MessageOf(err), CodeInvalidState)
	case domain.KindNotImplemented:
		WriteError(w, http.StatusNotImplemented, domain.MessageOf(err), CodeNotImplemented)
	case domain.KindExternal:
		WriteError(w, http.StatusInternalServerError, domain.MessageOf(err), CodeUpstreamError)
	default:
		WriteError(w, http.StatusInternalServerError, "internal error", CodeInternalError)
	}
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}
