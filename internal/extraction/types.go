package extraction

import (
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// DocKind is the media kind of an uploaded document.
type DocKind string

const (
	DocImage   DocKind = "image"
	DocPDF     DocKind = "pdf"
	DocText    DocKind = "text"
	DocUnknown DocKind = "unknown"
)

// Document is the uploaded blob. It lives only for one Extract call.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	".tif": true, ".tiff": true, ".webp": true, ".gif": true,
}

var textExtensions = map[string]bool{
	".txt": true, ".text": true, ".md": true, ".csv": true,
}

// Kind detects the media kind from the declared content type first and the
// file extension second.
func (d Document) Kind() DocKind {
	ct := strings.ToLower(strings.TrimSpace(d.ContentType))
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	switch {
	case ct == "application/pdf":
		return DocPDF
	case strings.HasPrefix(ct, "image/"):
		return DocImage
	case strings.HasPrefix(ct, "text/"):
		return DocText
	}

	ext := strings.ToLower(filepath.Ext(d.Name))
	switch {
	case ext == ".pdf":
		return DocPDF
	case imageExtensions[ext]:
		return DocImage
	case textExtensions[ext]:
		return DocText
	}
	return DocUnknown
}

// Method tags the strategy that produced the accepted text.
type Method string

const (
	MethodVision          Method = "vision_extraction"
	MethodRemoteOCR       Method = "remote_ocr"
	MethodReadAPI         Method = "structured_read_api"
	MethodLocalOCR        Method = "local_ocr"
	MethodVisionFallback  Method = "vision_extraction_fallback"
	MethodImageFailed     Method = "image_ocr_failed"
	MethodDirectPDF       Method = "direct_pdf_text"
	MethodRasterizedPDF   Method = "rasterized_pdf_ocr"
	MethodPDFFailed       Method = "pdf_ocr_failed"
	MethodTextFile        Method = "text_file"
	MethodTextFallback    Method = "text_file_fallback_encoding"
	MethodDecodeError     Method = "decode_error"
	MethodUnsupportedType Method = "unsupported_type"
)

var allMethods = map[Method]bool{
	MethodVision: true, MethodRemoteOCR: true, MethodReadAPI: true,
	MethodLocalOCR: true, MethodVisionFallback: true, MethodImageFailed: true,
	MethodDirectPDF: true, MethodRasterizedPDF: true, MethodPDFFailed: true,
	MethodTextFile: true, MethodTextFallback: true, MethodDecodeError: true,
	MethodUnsupportedType: true,
}

func (m Method) Valid() bool { return allMethods[m] }

// Failed reports whether m is a terminal degraded outcome.
func (m Method) Failed() bool {
	switch m {
	case MethodImageFailed, MethodPDFFailed, MethodDecodeError, MethodUnsupportedType:
		return true
	}
	return false
}

// User-facing placeholders returned instead of errors when nothing could be read.
const (
	PlaceholderImageFailed = "Text could not be extracted from the image. Please try a sharper, better lit image."
	PlaceholderPDFFailed   = "The PDF contains images, but no text could be extracted from them."
	PlaceholderDecodeError = "The text file could not be decoded."
	PlaceholderUnsupported = "Unsupported file type: no text could be extracted."
)

// Attempt is one strategy invocation. It is logged and returned for
// diagnostics, never persisted.
type Attempt struct {
	Method   Method        `json:"method"`
	Page     int           `json:"page"`
	Chars    int           `json:"chars"`
	Accepted bool          `json:"accepted"`
	Elapsed  time.Duration `json:"elapsed"`
	Err      string        `json:"error,omitempty"`
}

type PageResult struct {
	Number   int    `json:"number"`
	Text     string `json:"-"`
	Method   Method `json:"method"`
	Accepted bool   `json:"accepted"`
}

// Result is the outcome of one Extract call.
type Result struct {
	Text     string       `json:"text"`
	Method   Method       `json:"processing_method"`
	Chars    int          `json:"chars"`
	Pages    []PageResult `json:"pages,omitempty"`
	Attempts []Attempt    `json:"attempts,omitempty"`
}
