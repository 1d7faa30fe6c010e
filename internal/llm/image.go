package llm

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Image is a page image handed to a vision-capable provider.
type Image struct {
	Path     string
	MimeType string
}

// encoded reads the file and returns its base64 payload and mime type.
func (img *Image) encoded() (string, string, error) {
	data, err := os.ReadFile(img.Path)
	if err != nil {
		return "", "", fmt.Errorf("read image file: %w", err)
	}
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = MimeFromExtension(filepath.Ext(img.Path))
	}
	return base64.StdEncoding.EncodeToString(data), mimeType, nil
}

func (img *Image) dataURL() (string, error) {
	b64, mimeType, err := img.encoded()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, b64), nil
}

// MimeFromExtension maps an image file extension to its media type,
// defaulting to PNG.
func MimeFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "image/png"
	}
}
