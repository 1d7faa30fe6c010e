package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nikhilbhutani/docintake/internal/llm"
)

// ProviderSource supplies the active system providers in priority order.
type ProviderSource interface {
	Available() []llm.Provider
}

const visionPrompt = `IMPORTANT: your task is to extract ALL text from this image as accurately as possible.

Instructions:
1. Examine the image carefully.
2. Extract ALL visible text, including headings, body text, captions, page numbers, dates, addresses and any other text elements.
3. Preserve the original layout (paragraphs, lists).
4. Do NOT interpret the content, only transcribe it.
5. If the text is in several languages, extract all of them.
6. Mark text you cannot read as [illegible].

Reply ONLY with the extracted text, without any additional comments.`

const visionFallbackPrompt = "Extract all text from this image. Reply only with the text you see."

// VisionStrategy asks vision-capable providers to transcribe the page. Caller
// providers are tried first in their given order, then the system providers.
type VisionStrategy struct {
	method   Method
	prompt   string
	minChars int
	system   ProviderSource
	logger   *slog.Logger
}

func NewVisionStrategy(system ProviderSource, minChars int, logger *slog.Logger) *VisionStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionStrategy{method: MethodVision, prompt: visionPrompt, minChars: minChars, system: system, logger: logger}
}

// NewVisionFallbackStrategy is the last-resort retry with a one-line prompt and
// a lower bar.
func NewVisionFallbackStrategy(system ProviderSource, minChars int, logger *slog.Logger) *VisionStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionStrategy{method: MethodVisionFallback, prompt: visionFallbackPrompt, minChars: minChars, system: system, logger: logger}
}

func (s *VisionStrategy) Method() Method { return s.method }
func (s *VisionStrategy) MinChars() int  { return s.minChars }

func (s *VisionStrategy) Ready(in PageInput) bool {
	return len(s.candidates(in)) > 0
}

func (s *VisionStrategy) candidates(in PageInput) []llm.Provider {
	var out []llm.Provider
	for _, p := range in.AdHoc {
		if p != nil && p.Available() {
			out = append(out, p)
		}
	}
	if s.system != nil {
		out = append(out, s.system.Available()...)
	}
	return out
}

// Attempt returns the first provider answer that clears the strategy's bar.
// A failing provider never stops the loop.
func (s *VisionStrategy) Attempt(ctx context.Context, in PageInput) (string, error) {
	candidates := s.candidates(in)
	if len(candidates) == 0 {
		return "", ErrNoProviders
	}

	img := &llm.Image{Path: in.Path}
	var errs []error
	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := p.Generate(ctx, s.prompt, img)
		if err != nil {
			s.logger.Warn("vision provider failed",
				"method", s.method,
				"provider", p.Kind(),
				"page", in.Number,
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		if !passes(text, s.minChars) {
			errs = append(errs, fmt.Errorf("%s: %w", p.Kind(), ErrInsufficientQuality))
			continue
		}
		return strings.TrimSpace(text), nil
	}
	return "", errors.Join(errs...)
}
