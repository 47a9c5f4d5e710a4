package domain

import "context"

// Converter turns an office document into a PDF inside outputDir and returns
// the path of the produced file.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputDir string) (string, error)
}

// PDFInfo is what the inspector learns about a produced PDF.
type PDFInfo struct {
	PageCount int
	Title     string
	Author    string
}

// PDFInspector opens a PDF and reports its basic metadata.
type PDFInspector interface {
	Inspect(path string) (*PDFInfo, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}
