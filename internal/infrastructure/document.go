package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
)

var (
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrEmptyDocument       = errors.New("document contains no text")
)

// DocumentKind maps a file name to the extractor that handles it.
func DocumentKind(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".txt", ".md":
		return "text"
	case ".csv":
		return "csv"
	}
	return ""
}

// ExtractDocumentText returns the plain text of a PDF or text upload. PDF
// pages are separated by "--- Page N ---" markers.
func ExtractDocumentText(ctx context.Context, filename string, data []byte) (string, error) {
	switch DocumentKind(filename) {
	case "pdf":
		return extractPDF(ctx, data)
	case "text":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: not valid UTF-8", filename)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", ErrEmptyDocument
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, filepath.Ext(filename))
	}
}

func extractPDF(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return "", ErrEmptyDocument
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
			return "", fmt.Errorf("extract page %d: %w", pageNum+1, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n--- Page %d ---\n", pageNum+1)
		sb.WriteString(text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyDocument
	}
	return sb.String(), nil
}
