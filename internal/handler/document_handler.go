// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"doc-converter/internal/domain"
	apperrors "doc-converter/pkg/errors"

	"github.com/gorilla/mux"
)

// multipartOverhead is allowed on top of the file size for form framing.
const multipartOverhead = 1 << 20

// DocumentHandler handles document-related HTTP requests
type DocumentHandler struct {
	documentService domain.DocumentService
	maxFileSize     int64
	logger          domain.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService domain.DocumentService, maxFileSize int64, logger domain.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxFileSize:     maxFileSize,
		logger:          logger,
	}
}

// UploadDocument converts the multipart "file" field to PDF.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	if h.maxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
			writeError(w, http.StatusBadRequest, "File too large")
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			writeError(w, http.StatusBadRequest, "No file selected")
		default:
			h.logger.Warn("Failed to parse upload", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid upload")
		}
		return
	}
	defer file.Close()

	doc, err := h.documentService.Upload(r.Context(), sess.UserID, file, header.Filename)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success:     true,
		FileID:      doc.FileID,
		PDFFilename: doc.PDFFilename,
	})
}

// DownloadDocument streams the owned PDF as an attachment.
func (h *DocumentHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	fileID := mux.Vars(r)["file_id"]
	doc, rc, err := h.documentService.Open(r.Context(), sess.UserID, fileID)
	if err != nil {
		status := apperrors.GetStatusCode(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Download failed", err, "file_id", fileID)
		}
		http.Error(w, apperrors.PublicMessage(err), status)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.PDFFilename}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Download interrupted", "file_id", fileID, "error", err)
	}
}

// GetDocuments lists the user's documents, newest first.
func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	docs, err := h.documentService.List(r.Context(), sess.UserID)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}

	// Ensure JSON is [] not null when there are no documents.
	views := make([]domain.DocumentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, doc.View())
	}
	writeJSON(w, http.StatusOK, domain.DocumentListResponse{Documents: views})
}

// DeleteDocument removes an owned document. Unknown ids succeed too.
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	fileID := mux.Vars(r)["file_id"]
	if err := h.documentService.Delete(r.Context(), sess.UserID, fileID); err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true})
}
