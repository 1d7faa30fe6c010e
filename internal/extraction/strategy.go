package extraction

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/nikhilbhutani/docintake/internal/llm"
)

// PageInput is one rendered page or standalone image.
type PageInput struct {
	Path   string
	Number int
	AdHoc  []llm.Provider
}

// Strategy turns one page image into text.
type Strategy interface {
	Method() Method
	MinChars() int
	// Ready reports, without network access, whether the strategy can run for
	// in. Ready(PageInput{}) describes system-level readiness.
	Ready(in PageInput) bool
	Attempt(ctx context.Context, in PageInput) (string, error)
}

// charCount is the quality measure: runes in the trimmed text.
func charCount(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// passes is the quality gate. The bar is strict: exactly min chars is rejected.
func passes(text string, min int) bool {
	return charCount(text) > min
}
