package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/otiai10/gosseract/v2"

	"MedReportAgent/internal/config"
	"MedReportAgent/internal/ports"
)

// Extractor reads text out of PDFs and scanned images. PDFs with a text
// layer are read directly; images go through Tesseract OCR.
type Extractor struct {
	languages []string
	logger    *slog.Logger
}

var _ ports.DocumentExtractor = (*Extractor)(nil)

func NewExtractor(cfg config.OCRConfig, logger *slog.Logger) *Extractor {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Extractor{
		languages: langs,
		logger:    logger.With("component", "ocr"),
	}
}

// ExtractText returns the document's text and an extraction confidence in
// [0,1]. PDF text layers are trusted fully; OCR confidence comes from
// Tesseract's per-word scores.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(path)
	default:
		return e.extractImage(path)
	}
}

func (e *Extractor) extractPDF(path string) (string, float64, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", 0, fmt.Errorf("read pdf text: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", 0, fmt.Errorf("pdf has no extractable text layer")
	}

	e.logger.Debug("pdf text extracted", "path", path, "chars", len(text))
	return text, 1.0, nil
}

func (e *Extractor) extractImage(path string) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", 0, fmt.Errorf("set ocr languages: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return "", 0, fmt.Errorf("set ocr image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("run ocr: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", 0, fmt.Errorf("ocr produced no text")
	}

	confidence := 0.0
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err == nil && len(boxes) > 0 {
		var sum float64
		for _, box := range boxes {
			sum += box.Confidence
		}
		confidence = sum / float64(len(boxes)) / 100.0
	}

	e.logger.Debug("image text extracted", "path", path, "chars", len(text), "confidence", confidence)
	return text, confidence, nil
}
