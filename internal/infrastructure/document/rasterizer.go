// Package document turns uploaded receipts into images the vision model accepts.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// ErrEmptyDocument is returned for a PDF with no pages
var ErrEmptyDocument = errors.New("document has no pages")

const jpegQuality = 85

// Rasterizer renders the first page of a PDF to JPEG using MuPDF
type Rasterizer struct {
	logger *zap.Logger
}

// NewRasterizer creates a rasterizer
func NewRasterizer(logger *zap.Logger) *Rasterizer {
	return &Rasterizer{logger: logger}
}

// FirstPageJPEG renders page one of the PDF in data
func (r *Rasterizer) FirstPageJPEG(data []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, ErrEmptyDocument
	}
	r.logger.Debug("Rasterizing receipt", zap.Int("total_pages", doc.NumPage()))

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// IsPDF reports whether mimeType or the leading bytes identify a PDF
func IsPDF(mimeType string, data []byte) bool {
	return mimeType == "application/pdf" || bytes.HasPrefix(data, []byte("%PDF-"))
}
