package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"doc-converter/internal/converter"
	"doc-converter/internal/domain"
	apperrors "doc-converter/pkg/errors"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// AllowedExtensions lists the upload types the converter accepts.
var AllowedExtensions = map[string]bool{
	".doc":  true,
	".docx": true,
}

// DocumentServiceOptions holds the tunables of the upload pipeline.
type DocumentServiceOptions struct {
	StagingDir  string
	MaxFileSize int64
}

type DocumentService struct {
	repo      domain.DocumentRepository
	blobs     domain.BlobStore
	converter domain.Converter
	inspector domain.PDFInspector
	opts      DocumentServiceOptions
	logger    domain.Logger
	now       func() time.Time
}

func NewDocumentService(
	repo domain.DocumentRepository,
	blobs domain.BlobStore,
	conv domain.Converter,
	inspector domain.PDFInspector,
	opts DocumentServiceOptions,
	logger domain.Logger,
) *DocumentService {
	return &DocumentService{
		repo:      repo,
		blobs:     blobs,
		converter: conv,
		inspector: inspector,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// AllowedFile reports whether filename has a convertible extension.
func AllowedFile(filename string) bool {
	return AllowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SecureFilename reduces name to a safe single path component. Accented
// letters are folded to their ASCII base before unsafe characters are dropped.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, name)
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}

// Upload stages the file, converts it to PDF, stores the PDF and records it.
// Staged files are removed whatever the outcome.
func (s *DocumentService) Upload(ctx context.Context, userID int64, file io.Reader, originalName string) (*domain.Document, error) {
	if strings.TrimSpace(originalName) == "" {
		return nil, apperrors.NewValidationError("No file selected")
	}
	if !AllowedFile(originalName) {
		return nil, apperrors.NewValidationError("Invalid file type")
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	name := SecureFilename(originalName)
	if strings.ToLower(filepath.Ext(name)) != ext || strings.TrimSuffix(name, filepath.Ext(name)) == "" {
		name = "document" + ext
	}

	if err := os.MkdirAll(s.opts.StagingDir, 0o755); err != nil {
		return nil, apperrors.NewInternalError("Upload failed", fmt.Errorf("create staging root: %w", err))
	}
	stage, err := os.MkdirTemp(s.opts.StagingDir, "upload-*")
	if err != nil {
		return nil, apperrors.NewInternalError("Upload failed", fmt.Errorf("create staging dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(stage); err != nil {
			s.logger.Warn("Failed to remove staging directory", "dir", stage, "error", err)
		}
	}()

	fileID := uuid.NewString()
	originalPath := filepath.Join(stage, fileID+"_"+name)
	size, err := s.stage(file, originalPath)
	if err != nil {
		return nil, err
	}

	pdfName := fileID + "_" + strings.TrimSuffix(name, filepath.Ext(name)) + ".pdf"
	pdfPath, err := converter.ConvertTo(ctx, s.converter, originalPath, stage, pdfName)
	if err != nil {
		s.logger.Error("Conversion failed", err, "file_id", fileID, "user_id", userID)
		var convErr *domain.ConversionError
		if errors.As(err, &convErr) {
			return nil, apperrors.NewConversionError("Conversion failed", err)
		}
		return nil, apperrors.NewInternalError("Upload failed", err)
	}

	pdfInfo := &domain.PDFInfo{}
	if s.inspector != nil {
		info, err := s.inspector.Inspect(pdfPath)
		if err != nil {
			s.logger.Error("Converted PDF is unreadable", err, "file_id", fileID)
			return nil, apperrors.NewConversionError("Conversion failed", err)
		}
		pdfInfo = info
	}

	if err := s.storePDF(ctx, pdfName, pdfPath); err != nil {
		s.logger.Error("Failed to store converted PDF", err, "file_id", fileID)
		return nil, apperrors.NewInternalError("Upload failed", err)
	}

	doc := &domain.Document{
		FileID:           fileID,
		UserID:           userID,
		OriginalFilename: name,
		PDFFilename:      pdfName,
		OriginalPath:     originalPath,
		PDFPath:          s.blobs.Location(pdfName),
		CreatedAt:        s.now().UTC(),
		FileSize:         size,
		PageCount:        pdfInfo.PageCount,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		s.logger.Error("Failed to save document record", err, "file_id", fileID)
		if delErr := s.blobs.Delete(ctx, pdfName); delErr != nil {
			s.logger.Warn("Failed to roll back stored PDF", "key", pdfName, "error", delErr)
		}
		return nil, apperrors.NewInternalError("Upload failed", err)
	}

	s.logger.Info("Document converted",
		"file_id", fileID,
		"user_id", userID,
		"original_filename", name,
		"file_size", size,
		"page_count", pdfInfo.PageCount,
		"pdf_title", pdfInfo.Title,
		"pdf_author", pdfInfo.Author,
	)
	return doc, nil
}

// stage copies the upload to path and enforces the size limit.
func (s *DocumentService) stage(file io.Reader, path string) (int64, error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, apperrors.NewInternalError("Upload failed", fmt.Errorf("create staged file: %w", err))
	}
	defer out.Close()

	src := file
	if s.opts.MaxFileSize > 0 {
		src = io.LimitReader(file, s.opts.MaxFileSize+1)
	}
	n, err := io.Copy(out, src)
	if err != nil {
		return 0, apperrors.NewInternalError("Upload failed", fmt.Errorf("write staged file: %w", err))
	}
	if s.opts.MaxFileSize > 0 && n > s.opts.MaxFileSize {
		return 0, apperrors.NewValidationError("File too large")
	}
	if n == 0 {
		return 0, apperrors.NewValidationError("No file selected", "empty file")
	}
	if err := out.Close(); err != nil {
		return 0, apperrors.NewInternalError("Upload failed", fmt.Errorf("close staged file: %w", err))
	}
	return n, nil
}

func (s *DocumentService) storePDF(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, key, f, info.Size())
}

// List returns the user's documents, newest first.
func (s *DocumentService) List(ctx context.Context, userID int64) ([]*domain.Document, error) {
	docs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list documents", err, "user_id", userID)
		return nil, apperrors.NewInternalError("Failed to list documents", err)
	}
	return docs, nil
}

// Open returns the owned record and a reader over its PDF. The caller closes
// the reader.
func (s *DocumentService) Open(ctx context.Context, userID int64, fileID string) (*domain.Document, io.ReadCloser, error) {
	doc, err := s.repo.GetOwned(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, nil, apperrors.NewNotFoundError("File not found")
		}
		s.logger.Error("Failed to load document", err, "file_id", fileID)
		return nil, nil, apperrors.NewInternalError("Failed to load document", err)
	}

	rc, err := s.blobs.Open(ctx, doc.PDFFilename)
	if err != nil {
		if errors.Is(err, domain.ErrBlobNotFound) {
			s.logger.Warn("Document record has no stored PDF", "file_id", fileID, "key", doc.PDFFilename)
			return nil, nil, apperrors.NewNotFoundError("File not found")
		}
		s.logger.Error("Failed to open stored PDF", err, "file_id", fileID)
		return nil, nil, apperrors.NewInternalError("Failed to load document", err)
	}
	return doc, rc, nil
}

// Delete removes the owned document and its PDF. Deleting something that
// does not exist succeeds.
func (s *DocumentService) Delete(ctx context.Context, userID int64, fileID string) error {
	doc, err := s.repo.GetOwned(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil
		}
		s.logger.Error("Failed to load document", err, "file_id", fileID)
		return apperrors.NewInternalError("Failed to delete document", err)
	}

	if err := s.blobs.Delete(ctx, doc.PDFFilename); err != nil {
		if !errors.Is(err, domain.ErrBlobNotFound) {
			s.logger.Error("Failed to delete stored PDF", err, "file_id", fileID)
			return apperrors.NewInternalError("Failed to delete document", err)
		}
		s.logger.Warn("Stored PDF already missing", "file_id", fileID, "key", doc.PDFFilename)
	}

	if _, err := s.repo.DeleteOwned(ctx, fileID, userID); err != nil {
		s.logger.Error("Failed to delete document record", err, "file_id", fileID)
		return apperrors.NewInternalError("Failed to delete document", err)
	}

	s.logger.Info("Document deleted", "file_id", fileID, "user_id", userID)
	return nil
}
