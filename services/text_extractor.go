package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat marks a media/document type the extractor cannot
// handle. It is a caller error, never retried, and distinct from transient
// extraction failures.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// TextExtractor pulls plain text out of single-format documents and images.
// Videos go through the VideoPipeline instead.
type TextExtractor struct {
	ocr OCREngine
}

func NewTextExtractor(ocr OCREngine) *TextExtractor {
	return &TextExtractor{ocr: ocr}
}

// Extract reads the whole document as one text blob. The returned text is
// what gets embedded and stored as a single whole-document segment.
func (e *TextExtractor) Extract(ctx context.Context, filePath string) (string, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".txt", ".csv":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", filePath, err)
		}
		return string(data), nil
	case ".pdf":
		return e.extractPDF(filePath)
	case ".xlsx":
		return e.extractXLSX(filePath)
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp":
		return e.extractImage(ctx, filePath)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filePath))
	}
}

func (e *TextExtractor) extractPDF(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// Skip unreadable pages, keep the rest
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return strings.TrimSpace(textBuilder.String()), nil
}

func (e *TextExtractor) extractXLSX(filePath string) (string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				cell = strings.TrimSpace(strings.ReplaceAll(cell, "\n", " "))
				if cell != "" {
					cells = append(cells, cell)
				}
			}
			if len(cells) > 0 {
				sb.WriteString(strings.Join(cells, "\t"))
				sb.WriteString("\n")
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

// extractImage runs OCR and strips the service's annotation lines.
func (e *TextExtractor) extractImage(ctx context.Context, filePath string) (string, error) {
	raw, err := e.ocr.Recognize(ctx, filePath)
	if err != nil {
		return "", fmt.Errorf("image OCR: %w", err)
	}
	return ParseOCROutput(raw).Text, nil
}
