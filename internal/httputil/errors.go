package httputil

import (
	"encoding/json"
	"net/http"
	"time"
)

// Error labels carried in the envelope's "error" field.
const (
	LabelValidation     = "Validation Failed"
	LabelAuthentication = "Authentication Failed"
	LabelAccessDenied   = "Access Denied"
	LabelRateLimited    = "Too Many Requests"
	LabelNotFound       = "Not Found"
	LabelMethod         = "Method Not Allowed"
	LabelDownstream     = "AI Server Error"
	LabelInternal       = "Internal Server Error"
)

const (
	MessageValidation     = "Invalid input parameters"
	MessageAuthentication = "Invalid or missing authentication token"
	MessageAccessDenied   = "You don't have permission to access this resource"
	MessageInternal       = "An unexpected error occurred"
)

// ErrorEnvelope is the single error shape returned by the relay.
type ErrorEnvelope struct {
	Timestamp        time.Time         `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	Path             string            `json:"path"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
	RequestID        string            `json:"requestId,omitempty"`
}

// WriteError writes one envelope. The request id is taken from the response
// headers set by the request-id middleware.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, label, message string, fields map[string]string) {
	requestID := w.Header().Get("X-Request-ID")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorEnvelope{
		Timestamp:        time.Now().UTC(),
		Status:           statusCode,
		Error:            label,
		Message:          message,
		Path:             r.URL.Path,
		ValidationErrors: fields,
		RequestID:        requestID,
	})
}

func WriteValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	WriteError(w, r, http.StatusBadRequest, LabelValidation, MessageValidation, fields)
}

func WriteAuthError(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusUnauthorized, LabelAuthentication, MessageAuthentication, nil)
}

func WriteAccessDeniedError(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusForbidden, LabelAccessDenied, MessageAccessDenied, nil)
}

func WriteRateLimitError(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusTooManyRequests, LabelRateLimited, message, nil)
}

func WriteDownstreamError(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusBadGateway, LabelDownstream, message, nil)
}

func WriteInternalError(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusInternalServerError, LabelInternal, MessageInternal, nil)
}

func WriteNotFoundError(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, LabelNotFound, "No handler for "+r.Method+" "+r.URL.Path, nil)
}

func WriteMethodNotAllowedError(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusMethodNotAllowed, LabelMethod, "Method "+r.Method+" is not supported for "+r.URL.Path, nil)
}

// WriteJSON writes a 200 response with v encoded as JSON.
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
