package handler

import (
	"encoding/json"
	"net/http"

	"doc-converter/internal/domain"
	apperrors "doc-converter/pkg/errors"
)

type contextKey string

const sessionContextKey contextKey = "session"

// GetSessionFromContext extracts the authenticated session from request context
func GetSessionFromContext(r *http.Request) (*domain.Session, bool) {
	sess, ok := r.Context().Value(sessionContextKey).(*domain.Session)
	return sess, ok
}

// response is the envelope every JSON endpoint except the listing uses.
type response struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	FileID      string `json:"file_id,omitempty"`
	PDFFilename string `json:"pdf_filename,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, response{Success: false, Message: message})
}

// writeAppError maps err to its status and client-safe message. Server-side
// failures are logged with their cause.
func writeAppError(w http.ResponseWriter, logger domain.Logger, r *http.Request, err error) {
	status := apperrors.GetStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err, "method", r.Method, "path", r.URL.Path)
	}
	writeError(w, status, apperrors.PublicMessage(err))
}
