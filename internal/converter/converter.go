// Package converter runs the external office suite that turns .doc/.docx
// uploads into PDFs.
package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"doc-converter/internal/domain"
)

const defaultBinary = "libreoffice"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr *bytes.Buffer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr *bytes.Buffer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Force-close pipes if the process outlives its context by 5s.
	cmd.WaitDelay = 5 * time.Second
	return cmd.Run()
}

var defaultExec executor = &osExecutor{}

// LibreOffice converts documents with a headless LibreOffice (or soffice) binary.
type LibreOffice struct {
	binary  string
	timeout time.Duration
	exec    executor
}

// NewLibreOffice creates a converter for binary. A zero timeout means the
// conversion is bounded only by the caller's context.
func NewLibreOffice(binary string, timeout time.Duration) *LibreOffice {
	return newLibreOffice(binary, timeout, defaultExec)
}

func newLibreOffice(binary string, timeout time.Duration, exec executor) *LibreOffice {
	if binary == "" {
		binary = defaultBinary
	}
	return &LibreOffice{binary: binary, timeout: timeout, exec: exec}
}

// Name returns the configured binary.
func (l *LibreOffice) Name() string { return l.binary }

// Available reports whether the binary resolves on PATH.
func (l *LibreOffice) Available() error {
	if _, err := l.exec.LookPath(l.binary); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrConverterNotPresent, l.binary, err)
	}
	return nil
}

// Convert blocks until the binary exits and returns the path of the PDF it
// wrote into outputDir. The tool always names its output after the input's
// base name; a missing file is reported as a ConversionError.
func (l *LibreOffice) Convert(ctx context.Context, inputPath, outputDir string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	args := []string{"--headless", "--convert-to", "pdf", "--outdir", outputDir, inputPath}

	var stdout, stderr bytes.Buffer
	if err := l.exec.Run(ctx, l.binary, args, &stdout, &stderr); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &domain.ConversionError{Input: inputPath, Output: diagnostics(&stderr, &stdout), Err: err}
	}

	outputPath := ExpectedOutput(inputPath, outputDir)
	if _, err := os.Stat(outputPath); err != nil {
		return "", &domain.ConversionError{
			Input:  inputPath,
			Output: diagnostics(&stderr, &stdout),
			Err:    fmt.Errorf("%w: expected %s", domain.ErrNoConversionOutput, filepath.Base(outputPath)),
		}
	}
	return outputPath, nil
}

// ExpectedOutput is where the office suite writes the PDF for inputPath.
func ExpectedOutput(inputPath, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(outputDir, base+".pdf")
}

// ConvertTo runs c and renames its output to outputName inside outputDir.
func ConvertTo(ctx context.Context, c domain.Converter, inputPath, outputDir, outputName string) (string, error) {
	produced, err := c.Convert(ctx, inputPath, outputDir)
	if err != nil {
		return "", err
	}

	target := filepath.Join(outputDir, outputName)
	if produced == target {
		return target, nil
	}
	if err := os.Rename(produced, target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &domain.ConversionError{Input: inputPath, Err: fmt.Errorf("%w: %s", domain.ErrNoConversionOutput, produced)}
		}
		return "", fmt.Errorf("rename converted file: %w", err)
	}
	return target, nil
}

func diagnostics(stderr, stdout *bytes.Buffer) string {
	if s := strings.TrimSpace(stderr.String()); s != "" {
		return s
	}
	return strings.TrimSpace(stdout.String())
}
