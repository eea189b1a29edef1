// Package ocr shells out to tesseract for scanned documents. PDFs are
// rasterized page-by-page with pdftoppm first, since tesseract only
// reads images.
package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jurisearch/backend/internal/domain/apperr"
)

type Tesseract struct {
	tesseractCmd string
	pdftoppmCmd  string
	logger       *zap.Logger
}

// NewTesseract returns nil when no tesseract binary is configured;
// callers treat a nil engine as "OCR unavailable".
func NewTesseract(tesseractCmd, pdftoppmCmd string, logger *zap.Logger) *Tesseract {
	if tesseractCmd == "" {
		return nil
	}
	if pdftoppmCmd == "" {
		pdftoppmCmd = "pdftoppm"
	}
	return &Tesseract{tesseractCmd: tesseractCmd, pdftoppmCmd: pdftoppmCmd, logger: logger}
}

func (t *Tesseract) Available() bool {
	return t != nil
}

// ExtractText rasterizes the PDF into page images and OCRs each page,
// concatenating results with page markers.
func (t *Tesseract) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "jurisearch-ocr-*")
	if err != nil {
		return "", apperr.Wrap(apperr.KindOCRUnavailable, "create OCR scratch dir", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	rasterize := exec.CommandContext(ctx, t.pdftoppmCmd, "-png", "-r", "300", pdfPath, prefix)
	if out, err := rasterize.CombinedOutput(); err != nil {
		return "", apperr.Wrap(apperr.KindOCRUnavailable,
			fmt.Sprintf("pdftoppm failed: %s", strings.TrimSpace(string(out))), err)
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(pages) == 0 {
		return "", apperr.New(apperr.KindOCRUnavailable, "pdftoppm produced no page images")
	}
	sort.Strings(pages)

	var sb strings.Builder
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		t.logger.Debug("running OCR", zap.String("pdf", pdfPath), zap.Int("page", i+1))

		// tesseract writes <out>.txt for output base <out>
		outBase := page + ".ocr"
		run := exec.CommandContext(ctx, t.tesseractCmd, page, outBase)
		if out, err := run.CombinedOutput(); err != nil {
			return "", apperr.Wrap(apperr.KindOCRUnavailable,
				fmt.Sprintf("tesseract failed on page %d: %s", i+1, strings.TrimSpace(string(out))), err)
		}

		text, err := os.ReadFile(outBase + ".txt")
		if err != nil {
			return "", apperr.Wrap(apperr.KindOCRUnavailable, "read OCR output", err)
		}
		fmt.Fprintf(&sb, "[Page %d]\n%s\n\n", i+1, strings.TrimSpace(string(text)))
	}
	return sb.String(), nil
}
