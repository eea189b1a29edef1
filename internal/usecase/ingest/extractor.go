package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/jurisearch/backend/internal/domain/apperr"
)

// A PDF whose text layer yields less than this is treated as scanned.
const (
	minExtractedChars = 200
	minCharsPerPage   = 25
)

var blankRunsRe = regexp.MustCompile(`\n{3,}`)

// OCR is the scanned-document fallback capability. A nil engine means
// OCR was never configured.
type OCR interface {
	Available() bool
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// Extractor converts an acquired document into normalized plain text,
// detecting scanned PDFs by text density and falling back to OCR.
type Extractor struct {
	ocr    OCR
	logger *zap.Logger
}

func NewExtractor(ocr OCR, logger *zap.Logger) *Extractor {
	return &Extractor{ocr: ocr, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", apperr.Wrap(apperr.KindExtraction, "read text file", err)
		}
		return NormalizeText(string(data)), nil
	case ".pdf":
		return e.extractPDF(ctx, path)
	default:
		return "", apperr.Newf(apperr.KindExtraction, "unsupported document type %q", filepath.Ext(path))
	}
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (string, error) {
	text, pages, err := extractPDFTextLayer(path)
	if err != nil {
		return "", err
	}

	if !looksScanned(text, pages) {
		return NormalizeText(text), nil
	}

	e.logger.Info("scanned PDF detected, falling back to OCR",
		zap.String("path", path),
		zap.Int("pages", pages),
		zap.Int("extracted_chars", len(strings.TrimSpace(text))))

	if e.ocr == nil || !e.ocr.Available() {
		// distinct from an extraction error: retryable once OCR is
		// configured, without re-fetching the document
		return "", apperr.Newf(apperr.KindOCRUnavailable, "%s needs OCR but no OCR engine is configured", path)
	}
	ocrText, err := e.ocr.ExtractText(ctx, path)
	if err != nil {
		return "", err
	}
	return NormalizeText(ocrText), nil
}

func extractPDFTextLayer(path string) (string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, apperr.Wrap(apperr.KindExtraction, "read PDF file", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, apperr.Wrap(apperr.KindExtraction, "open PDF", err)
	}

	numPages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// a broken page does not fail the document; density
			// classification decides what happens next
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String(), numPages, nil
}

// looksScanned classifies a near-empty text layer on a non-trivial page
// count as a scanned document.
func looksScanned(text string, pages int) bool {
	chars := len(strings.TrimSpace(text))
	if chars < minExtractedChars {
		return true
	}
	return pages > 1 && chars/pages < minCharsPerPage
}

// NormalizeText trims lines, drops isolated page-number lines, and
// collapses runs of blank lines.
func NormalizeText(text string) string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			lines = append(lines, "")
			continue
		}
		if isDigits(line) {
			continue
		}
		lines = append(lines, line)
	}
	normalized := strings.Join(lines, "\n")
	normalized = blankRunsRe.ReplaceAllString(normalized, "\n\n")
	return strings.TrimSpace(normalized)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
