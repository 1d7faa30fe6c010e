package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nikhilbhutani/docintake/internal/llm"
)

// Generator is the system fallback. llm.Registry satisfies it and never fails.
type Generator interface {
	Generate(ctx context.Context, prompt string, image *llm.Image) (string, string)
}

type Analyzer struct {
	system Generator
	logger *slog.Logger
}

func NewAnalyzer(system Generator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{system: system, logger: logger}
}

type Input struct {
	Text     string
	Language string
	FileName string
	AdHoc    []llm.AdHocProvider
}

// Analyze asks the caller's providers first, in order, then the system
// registry. Provider exhaustion still yields a formatted result labeled Demo
// or Error.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*Result, error) {
	p, err := BuildPrompt(in.Language, in.FileName, in.Text)
	if err != nil {
		return nil, fmt.Errorf("build analysis prompt: %w", err)
	}

	raw, label := a.generate(ctx, p, in.AdHoc)

	res := Format(raw, in.Language)
	res.LLMProvider = label
	res.RawText = raw
	return res, nil
}

func (a *Analyzer) generate(ctx context.Context, prompt string, adHoc []llm.AdHocProvider) (string, string) {
	for _, p := range adHoc {
		text, err := p.Generate(ctx, prompt, nil)
		if err != nil {
			a.logger.Warn("caller provider analysis failed", "provider", p.Kind(), "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		return text, p.Label
	}
	return a.system.Generate(ctx, prompt, nil)
}
