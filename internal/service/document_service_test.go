package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"doc-converter/internal/domain"
	apperrors "doc-converter/pkg/errors"

	"github.com/google/uuid"
)

type documentFixture struct {
	service   *DocumentService
	repo      *MockDocumentRepository
	blobs     *MockBlobStore
	converter *MockConverter
	inspector *MockInspector
	logger    *MockLogger
	staging   string
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	f := &documentFixture{
		repo:      NewMockDocumentRepository(),
		blobs:     NewMockBlobStore(),
		converter: &MockConverter{},
		inspector: &MockInspector{pages: 3},
		logger:    NewMockLogger(),
		staging:   t.TempDir(),
	}
	f.service = NewDocumentService(f.repo, f.blobs, f.converter, f.inspector,
		DocumentServiceOptions{StagingDir: f.staging, MaxFileSize: 1024}, f.logger)
	return f
}

func (f *documentFixture) assertStagingEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.staging)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected staging dir to be empty, found %d entries", len(entries))
	}
}

func TestDocumentService_Upload(t *testing.T) {
	f := newDocumentFixture(t)
	content := "PK\x03\x04 fake docx body"

	doc, err := f.service.Upload(context.Background(), 7, strings.NewReader(content), "report.docx")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := uuid.Parse(doc.FileID); err != nil {
		t.Errorf("Expected uuid file ID, got %q", doc.FileID)
	}
	if doc.PDFFilename != doc.FileID+"_report.pdf" {
		t.Errorf("Unexpected pdf filename %q", doc.PDFFilename)
	}
	if doc.OriginalFilename != "report.docx" {
		t.Errorf("Unexpected original filename %q", doc.OriginalFilename)
	}
	if doc.FileSize != int64(len(content)) {
		t.Errorf("Expected file size %d, got %d", len(content), doc.FileSize)
	}
	if doc.PageCount != 3 {
		t.Errorf("Expected 3 pages, got %d", doc.PageCount)
	}
	if doc.PDFPath != "mock://"+doc.PDFFilename {
		t.Errorf("Unexpected pdf path %q", doc.PDFPath)
	}

	if _, err := os.Stat(doc.OriginalPath); !os.IsNotExist(err) {
		t.Errorf("Expected staged original %s to be removed", doc.OriginalPath)
	}
	if _, ok := f.blobs.objects[doc.PDFFilename]; !ok {
		t.Error("Expected PDF to be stored")
	}
	if _, ok := f.repo.documents[doc.FileID]; !ok {
		t.Error("Expected document record to be stored")
	}
	if !strings.HasSuffix(f.converter.inputs[0], doc.FileID+"_report.docx") {
		t.Errorf("Unexpected converter input %s", f.converter.inputs[0])
	}
	f.assertStagingEmpty(t)
}

func TestDocumentService_UploadRejectsBeforeConversion(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		message  string
	}{
		{"no filename", "", "data", "No file selected"},
		{"text file", "notes.txt", "data", "Invalid file type"},
		{"no extension", "report", "data", "Invalid file type"},
		{"pdf upload", "already.pdf", "data", "Invalid file type"},
		{"too large", "big.docx", strings.Repeat("x", 2048), "File too large"},
		{"empty", "empty.doc", "", "No file selected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocumentFixture(t)

			_, err := f.service.Upload(context.Background(), 1, strings.NewReader(tt.content), tt.filename)
			if apperrors.GetStatusCode(err) != http.StatusBadRequest {
				t.Fatalf("Expected status %d, got %d (%v)", http.StatusBadRequest, apperrors.GetStatusCode(err), err)
			}
			if apperrors.PublicMessage(err) != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, apperrors.PublicMessage(err))
			}
			if len(f.converter.inputs) != 0 {
				t.Error("Converter must not run for rejected uploads")
			}
			if len(f.repo.documents) != 0 {
				t.Error("No record must be stored for rejected uploads")
			}
			f.assertStagingEmpty(t)
		})
	}
}

func TestDocumentService_UploadAcceptsUppercaseExtension(t *testing.T) {
	f := newDocumentFixture(t)

	doc, err := f.service.Upload(context.Background(), 1, strings.NewReader("data"), "LEGACY.DOC")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.PDFFilename != doc.FileID+"_LEGACY.pdf" {
		t.Errorf("Unexpected pdf filename %q", doc.PDFFilename)
	}
}

func TestDocumentService_UploadConversionFailures(t *testing.T) {
	tests := []struct {
		name      string
		converter *MockConverter
		inspector *MockInspector
	}{
		{
			name:      "converter exits non-zero",
			converter: &MockConverter{err: &domain.ConversionError{Input: "in.docx", Output: "source file could not be loaded", Err: errors.New("exit status 1")}},
			inspector: &MockInspector{pages: 1},
		},
		{
			name:      "converter writes nothing",
			converter: &MockConverter{skipOutput: true},
			inspector: &MockInspector{pages: 1},
		},
		{
			name:      "unreadable pdf",
			converter: &MockConverter{},
			inspector: &MockInspector{err: errors.New("failed to open PDF")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocumentFixture(t)
			f.service.converter = tt.converter
			f.service.inspector = tt.inspector

			_, err := f.service.Upload(context.Background(), 1, strings.NewReader("data"), "report.docx")
			if apperrors.GetStatusCode(err) != http.StatusUnprocessableEntity {
				t.Fatalf("Expected status %d, got %d (%v)", http.StatusUnprocessableEntity, apperrors.GetStatusCode(err), err)
			}
			if apperrors.PublicMessage(err) != "Conversion failed" {
				t.Errorf("Unexpected message %q", apperrors.PublicMessage(err))
			}
			if strings.Contains(apperrors.PublicMessage(err), "exit status") {
				t.Error("Converter diagnostics must not reach clients")
			}
			if len(f.blobs.objects) != 0 || len(f.repo.documents) != 0 {
				t.Error("Nothing must be stored when conversion fails")
			}
			f.assertStagingEmpty(t)
		})
	}
}

func TestDocumentService_UploadRollsBackBlobWhenRecordFails(t *testing.T) {
	f := newDocumentFixture(t)
	f.repo.createErr = errors.New("mongo unavailable")

	_, err := f.service.Upload(context.Background(), 1, strings.NewReader("data"), "report.docx")
	if apperrors.GetStatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("Expected status %d, got %d", http.StatusInternalServerError, apperrors.GetStatusCode(err))
	}
	if len(f.blobs.deleted) != 1 || len(f.blobs.objects) != 0 {
		t.Errorf("Expected stored PDF to be rolled back, deleted=%v remaining=%d", f.blobs.deleted, len(f.blobs.objects))
	}
	f.assertStagingEmpty(t)
}

func TestDocumentService_UploadStoreFailure(t *testing.T) {
	f := newDocumentFixture(t)
	f.blobs.putErr = errors.New("bucket missing")

	_, err := f.service.Upload(context.Background(), 1, strings.NewReader("data"), "report.docx")
	if apperrors.GetStatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("Expected status %d, got %d", http.StatusInternalServerError, apperrors.GetStatusCode(err))
	}
	if len(f.repo.documents) != 0 {
		t.Error("No record must be stored when the PDF could not be stored")
	}
}

func seedDocument(f *documentFixture, fileID string, userID int64, createdAt time.Time) *domain.Document {
	doc := &domain.Document{
		FileID:           fileID,
		UserID:           userID,
		OriginalFilename: "report.docx",
		PDFFilename:      fileID + "_report.pdf",
		PDFPath:          "mock://" + fileID + "_report.pdf",
		CreatedAt:        createdAt,
		FileSize:         10,
	}
	f.repo.documents[fileID] = doc
	f.blobs.objects[doc.PDFFilename] = []byte("%PDF " + fileID)
	return doc
}

func TestDocumentService_List(t *testing.T) {
	f := newDocumentFixture(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	seedDocument(f, "older", 1, base)
	seedDocument(f, "newer", 1, base.Add(time.Hour))
	seedDocument(f, "foreign", 2, base.Add(2*time.Hour))

	docs, err := f.service.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[0].FileID != "newer" || docs[1].FileID != "older" {
		t.Errorf("Expected newest first, got %s, %s", docs[0].FileID, docs[1].FileID)
	}

	f.repo.listErr = errors.New("boom")
	if _, err := f.service.List(context.Background(), 1); apperrors.GetStatusCode(err) != http.StatusInternalServerError {
		t.Errorf("Expected internal error, got %v", err)
	}
}

func TestDocumentService_Open(t *testing.T) {
	f := newDocumentFixture(t)
	seedDocument(f, "doc1", 1, time.Now())
	orphan := seedDocument(f, "orphan", 1, time.Now())
	delete(f.blobs.objects, orphan.PDFFilename)

	doc, rc, err := f.service.Open(context.Background(), 1, "doc1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "%PDF doc1" || doc.PDFFilename != "doc1_report.pdf" {
		t.Errorf("Unexpected download %q for %s", data, doc.PDFFilename)
	}

	for _, tc := range []struct {
		userID int64
		fileID string
	}{
		{2, "doc1"},
		{1, "missing"},
		{1, "orphan"},
	} {
		_, _, err := f.service.Open(context.Background(), tc.userID, tc.fileID)
		if apperrors.GetStatusCode(err) != http.StatusNotFound {
			t.Errorf("user %d file %s: expected status %d, got %d", tc.userID, tc.fileID, http.StatusNotFound, apperrors.GetStatusCode(err))
		}
	}
}

func TestDocumentService_Delete(t *testing.T) {
	f := newDocumentFixture(t)
	doc := seedDocument(f, "doc1", 1, time.Now())

	// Another user cannot delete it, but gets the same success response.
	if err := f.service.Delete(context.Background(), 2, "doc1"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := f.repo.documents["doc1"]; !ok {
		t.Fatal("Document of another user must survive")
	}

	if err := f.service.Delete(context.Background(), 1, "doc1"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := f.repo.documents["doc1"]; ok {
		t.Error("Expected record to be removed")
	}
	if _, ok := f.blobs.objects[doc.PDFFilename]; ok {
		t.Error("Expected PDF to be removed")
	}

	if err := f.service.Delete(context.Background(), 1, "doc1"); err != nil {
		t.Errorf("Deleting a missing document should succeed, got %v", err)
	}
}

func TestDocumentService_DeleteWithMissingBlob(t *testing.T) {
	f := newDocumentFixture(t)
	doc := seedDocument(f, "doc1", 1, time.Now())
	delete(f.blobs.objects, doc.PDFFilename)

	if err := f.service.Delete(context.Background(), 1, "doc1"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := f.repo.documents["doc1"]; ok {
		t.Error("Expected record to be removed")
	}
	if !f.logger.Has("WARN: Stored PDF already missing") {
		t.Error("Expected missing PDF to be logged as a warning")
	}
}

func TestDocumentService_DeleteBlobFailureKeepsRecord(t *testing.T) {
	f := newDocumentFixture(t)
	seedDocument(f, "doc1", 1, time.Now())
	f.blobs.deleteErr = errors.New("permission denied")

	if err := f.service.Delete(context.Background(), 1, "doc1"); apperrors.GetStatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("Expected internal error, got %v", err)
	}
	if _, ok := f.repo.documents["doc1"]; !ok {
		t.Error("Record must be kept when the PDF could not be removed")
	}
}

func TestDocumentService_UploadLogsPDFMetadata(t *testing.T) {
	f := newDocumentFixture(t)
	f.inspector.title = "Quarterly Report"
	f.inspector.author = "Finance"

	doc, err := f.service.Upload(context.Background(), 7, strings.NewReader("body"), "report.docx")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := map[string]interface{}{
		"file_id":    doc.FileID,
		"page_count": 3,
		"pdf_title":  "Quarterly Report",
		"pdf_author": "Finance",
	}
	for key, value := range want {
		got, ok := f.logger.Field("Document converted", key)
		if !ok {
			t.Errorf("Expected %q in the conversion log line", key)
			continue
		}
		if got != value {
			t.Errorf("Expected %s=%v, got %v", key, value, got)
		}
	}
}

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.docx", "report.docx"},
		{"my report.docx", "my_report.docx"},
		{"../../etc/passwd.doc", "passwd.doc"},
		{`C:\Users\bob\cv.docx`, "cv.docx"},
		{".hidden.doc", "hidden.doc"},
		{"naïve café.docx", "naive_cafe.docx"},
		{"résumé.docx", "resume.docx"},
		{"отчёт.docx", "docx"},
		{"", ""},
		{"..", ""},
	}
	for _, tt := range tests {
		if got := SecureFilename(tt.in); got != tt.want {
			t.Errorf("SecureFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDocumentService_UploadUnsafeNameFallsBack(t *testing.T) {
	f := newDocumentFixture(t)

	doc, err := f.service.Upload(context.Background(), 1, strings.NewReader("data"), "отчёт.docx")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.OriginalFilename != "document.docx" {
		t.Errorf("Expected fallback name, got %q", doc.OriginalFilename)
	}
}
