package service

import (
	"fmt"
	"strings"

	"doc-converter/internal/domain"

	"github.com/gen2brain/go-fitz"
)

// PDFProcessor reads converted PDFs to confirm they open and to record
// their page count.
type PDFProcessor struct {
	logger domain.Logger
}

// NewPDFProcessor creates a new PDF processor
func NewPDFProcessor(logger domain.Logger) *PDFProcessor {
	return &PDFProcessor{
		logger: logger,
	}
}

// Inspect opens the PDF at path and returns its page count and metadata.
func (p *PDFProcessor) Inspect(path string) (*domain.PDFInfo, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages <= 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	meta := doc.Metadata()
	info := &domain.PDFInfo{
		PageCount: pages,
		Title:     strings.TrimSpace(meta["title"]),
		Author:    strings.TrimSpace(meta["author"]),
	}

	p.logger.Debug("PDF inspected", "path", path, "pages", info.PageCount)
	return info, nil
}
