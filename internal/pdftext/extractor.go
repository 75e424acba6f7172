// Package pdftext flattens provider statements from PDF to plain text. The
// flat text stream is the payload handed to the statement worker; all
// providers share it.
package pdftext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Extractor converts PDF documents to text using go-fitz.
type Extractor struct{}

// NewExtractor creates a new PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the concatenated text of every page in the PDF at path.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	return pagesText(ctx, doc)
}

// ExtractBytes returns the concatenated text of every page in an in-memory
// PDF.
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf from memory: %w", err)
	}
	defer doc.Close()

	return pagesText(ctx, doc)
}

func pagesText(ctx context.Context, doc *fitz.Document) (string, error) {
	pageCount := doc.NumPage()
	if pageCount == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	var sb strings.Builder
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		text, err := doc.Text(pageNum)
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", pageNum+1, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("pdf path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("pdf does not exist: %s", path)
		}
		return fmt.Errorf("cannot access pdf %s: %w", path, err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a pdf: %s", path)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return fmt.Errorf("file is not a pdf (extension %s): %s", ext, path)
	}

	return nil
}
