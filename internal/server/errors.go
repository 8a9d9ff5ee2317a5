// Package server exposes the network session authenticator over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Error types used in JSON error responses.
const (
	ErrTypeAuthentication = "authentication_error"
	ErrTypeHTTPSRequired  = "https_required"
	ErrTypePermission     = "permission_error"
	ErrTypeRateLimit      = "rate_limit_error"
	ErrTypeUnavailable    = "unavailable"
)

// Messages sent to clients. Failure details stay in the server log.
const (
	MsgAuthenticationFailed = "authentication failed"
	MsgMissingCredentials   = "missing credentials"
	MsgHTTPSRequired        = "NetworkSession credentials must be sent over HTTPS"
	MsgThrottled            = "too many failed authentication attempts"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error type and message.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Type: "error",
		Error: ErrorDetail{
			Type:    errorType,
			Message: message,
		},
	})
}

// WriteThrottled writes a 429 with a Retry-After hint.
func WriteThrottled(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	WriteError(w, http.StatusTooManyRequests, ErrTypeRateLimit, MsgThrottled)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
