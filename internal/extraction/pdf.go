package extraction

import (
	"fmt"
	"image/png"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// PDFTextExtractor returns the embedded text layer of a PDF without
// rasterizing it.
type PDFTextExtractor interface {
	Text(path string) (string, error)
}

// Rasterizer opens a PDF for page rendering.
type Rasterizer interface {
	Open(path string) (RasterDoc, error)
}

// RasterDoc renders 1-indexed pages to PNG files.
type RasterDoc interface {
	PageCount() int
	RenderPNG(page, dpi int, dst string) error
	Close() error
}

// EmbeddedText reads the text layer with ledongthuc/pdf.
type EmbeddedText struct{}

func (EmbeddedText) Text(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return strings.TrimSpace(buf.String()), nil
}

// FitzRasterizer renders pages through MuPDF (go-fitz).
type FitzRasterizer struct{}

func (FitzRasterizer) Open(path string) (RasterDoc, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF for rendering: %w", err)
	}
	return &fitzDoc{doc: doc}, nil
}

type fitzDoc struct {
	doc *fitz.Document
}

func (d *fitzDoc) PageCount() int { return d.doc.NumPage() }

func (d *fitzDoc) RenderPNG(page, dpi int, dst string) error {
	img, err := d.doc.ImageDPI(page-1, float64(dpi))
	if err != nil {
		return fmt.Errorf("render page %d: %w", page, err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create page image: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encode page %d: %w", page, err)
	}
	return out.Close()
}

func (d *fitzDoc) Close() error { return d.doc.Close() }
