package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// Codes used by the pipeline itself. Handlers define their own
// domain-specific codes on top of these.
const (
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeRoleNotEligible = "ROLE_NOT_ELIGIBLE"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternalError   = "INTERNAL_SERVER_ERROR"
)

// Envelope is the uniform success/error response shape. Every endpoint
// responds with it, success and failure alike.
type Envelope struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	Timestamp string `json:"timestamp"`
	Body      any    `json:"body,omitempty"`
}

// WriteEnvelope writes the uniform response envelope with the given
// status code.
func WriteEnvelope(w http.ResponseWriter, status int, code, message string, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		Status:    status,
		Message:   message,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Body:      body,
	})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Required for responses carrying tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
