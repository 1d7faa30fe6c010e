package extraction

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WorkspacePrefix names per-call scratch directories. The scratch sweeper
// matches on it.
const WorkspacePrefix = "intake-"

// workspace is a scratch directory owned by exactly one Extract call.
type workspace struct {
	dir string
}

func newWorkspace(root string) (*workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}
	dir, err := os.MkdirTemp(root, WorkspacePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &workspace{dir: dir}, nil
}

func (w *workspace) path(name string) string {
	return filepath.Join(w.dir, name)
}

// store writes the uploaded bytes under a sanitized name. Uploads without a
// recognizable extension get one from the declared or sniffed media type.
func (w *workspace) store(name, contentType string, data []byte) (string, error) {
	dst := w.path("document" + scratchExtension(name, contentType, data))
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	return dst, nil
}

// touch bumps the directory modification time so the scratch sweeper leaves
// a workspace alone while its request is still running.
func (w *workspace) touch() error {
	now := time.Now()
	return os.Chtimes(w.dir, now, now)
}

var mediaExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/pjpeg":     ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/bmp":       ".bmp",
	"image/x-ms-bmp":  ".bmp",
	"image/tiff":      ".tif",
	"application/pdf": ".pdf",
}

func scratchExtension(name, contentType string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if imageExtensions[ext] || ext == ".pdf" {
		return ext
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if known, ok := mediaExtensions[strings.ToLower(mt)]; ok {
			return known
		}
	}
	if mt, _, err := mime.ParseMediaType(http.DetectContentType(data)); err == nil {
		if known, ok := mediaExtensions[mt]; ok {
			return known
		}
	}
	return ext
}

func (w *workspace) Close() error {
	return os.RemoveAll(w.dir)
}
