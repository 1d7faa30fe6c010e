package extraction

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// LocalOCRStrategy shells out to a tesseract binary. It is off unless
// OCR_TESSERACT_ENABLED is set.
type LocalOCRStrategy struct {
	enabled       bool
	tesseractPath string
	lang          string
	minChars      int
}

func NewLocalOCRStrategy(enabled bool, path, lang string, minChars int) *LocalOCRStrategy {
	if enabled {
		if resolved, err := exec.LookPath(path); err == nil {
			path = resolved
		}
	}
	return &LocalOCRStrategy{enabled: enabled, tesseractPath: path, lang: lang, minChars: minChars}
}

func (s *LocalOCRStrategy) Method() Method       { return MethodLocalOCR }
func (s *LocalOCRStrategy) MinChars() int        { return s.minChars }
func (s *LocalOCRStrategy) Ready(PageInput) bool { return s.enabled }

func (s *LocalOCRStrategy) Attempt(ctx context.Context, in PageInput) (string, error) {
	cmd := exec.CommandContext(ctx, s.tesseractPath, in.Path, "stdout", "-l", s.lang)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract OCR: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
