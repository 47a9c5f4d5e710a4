package domain

import (
	"context"
	"io"
	"time"
)

// CreatedAtLayout is the fixed format used for document timestamps in API responses.
const CreatedAtLayout = "2006-01-02 15:04:05"

// Document describes one converted PDF and its owner.
type Document struct {
	FileID           string    `bson:"file_id"`
	UserID           int64     `bson:"user_id"`
	OriginalFilename string    `bson:"original_filename"`
	PDFFilename      string    `bson:"pdf_filename"`
	OriginalPath     string    `bson:"original_path,omitempty"`
	PDFPath          string    `bson:"pdf_path,omitempty"`
	CreatedAt        time.Time `bson:"created_at"`
	FileSize         int64     `bson:"file_size"`
	PageCount        int       `bson:"page_count"`
}

// Validate checks the fields required before a document record is stored.
func (d *Document) Validate() error {
	if d.FileID == "" {
		return &ValidationError{Field: "file_id", Message: "file ID is required"}
	}
	if d.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "user ID is required"}
	}
	if d.PDFFilename == "" {
		return &ValidationError{Field: "pdf_filename", Message: "PDF filename is required"}
	}
	if d.PDFPath == "" {
		return &ValidationError{Field: "pdf_path", Message: "PDF path is required"}
	}
	if d.FileSize < 0 {
		return &ValidationError{Field: "file_size", Message: "file size cannot be negative"}
	}
	if d.PageCount < 0 {
		return &ValidationError{Field: "page_count", Message: "page count cannot be negative"}
	}
	return nil
}

// DocumentView is the client-facing representation of a Document. Storage
// paths are never exposed.
type DocumentView struct {
	FileID           string `json:"file_id"`
	UserID           int64  `json:"user_id"`
	OriginalFilename string `json:"original_filename"`
	PDFFilename      string `json:"pdf_filename"`
	CreatedAt        string `json:"created_at"`
	FileSize         int64  `json:"file_size"`
	PageCount        int    `json:"page_count,omitempty"`
}

// View converts the record for API responses.
func (d *Document) View() DocumentView {
	return DocumentView{
		FileID:           d.FileID,
		UserID:           d.UserID,
		OriginalFilename: d.OriginalFilename,
		PDFFilename:      d.PDFFilename,
		CreatedAt:        d.CreatedAt.Format(CreatedAtLayout),
		FileSize:         d.FileSize,
		PageCount:        d.PageCount,
	}
}

// DocumentListResponse is the payload of the listing endpoint.
type DocumentListResponse struct {
	Documents []DocumentView `json:"documents"`
}

// DocumentRepository is the document metadata store. Every lookup is scoped
// to the owning user.
type DocumentRepository interface {
	Create(ctx context.Context, document *Document) error
	GetOwned(ctx context.Context, fileID string, userID int64) (*Document, error)
	ListByUser(ctx context.Context, userID int64) ([]*Document, error)
	DeleteOwned(ctx context.Context, fileID string, userID int64) (bool, error)
}

// DocumentService defines the use-case operations for documents.
type DocumentService interface {
	Upload(ctx context.Context, userID int64, file io.Reader, originalName string) (*Document, error)
	List(ctx context.Context, userID int64) ([]*Document, error)
	Open(ctx context.Context, userID int64, fileID string) (*Document, io.ReadCloser, error)
	Delete(ctx context.Context, userID int64, fileID string) error
}
