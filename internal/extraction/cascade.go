package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nikhilbhutani/docintake/internal/config"
	"github.com/nikhilbhutani/docintake/internal/llm"
)

// Cascade runs the ordered strategies against each page until one clears its
// quality bar. It holds no per-request state and is safe for concurrent use.
type Cascade struct {
	cfg        config.ExtractionConfig
	strategies []Strategy
	pdfText    PDFTextExtractor
	raster     Rasterizer
	scratchDir string
	logger     *slog.Logger
}

type Option func(*Cascade)

func WithStrategies(s ...Strategy) Option {
	return func(c *Cascade) { c.strategies = s }
}

func WithPDFText(p PDFTextExtractor) Option {
	return func(c *Cascade) { c.pdfText = p }
}

func WithRasterizer(r Rasterizer) Option {
	return func(c *Cascade) { c.raster = r }
}

func WithScratchDir(dir string) Option {
	return func(c *Cascade) { c.scratchDir = dir }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cascade) { c.logger = l }
}

// DefaultStrategies builds the production order: vision, remote OCR, read API,
// local OCR, minimal vision retry.
func DefaultStrategies(cfg *config.Config, system ProviderSource, logger *slog.Logger) []Strategy {
	ex := cfg.Extraction
	return []Strategy{
		NewVisionStrategy(system, ex.VisionMinChars, logger),
		NewRemoteOCRStrategy(cfg.OCR.OCRSpaceURL, cfg.OCR.OCRSpaceKey, cfg.OCR.OCRSpaceLanguage, ex.OCRMinChars, cfg.OCR.Timeout),
		NewReadAPIStrategy(ReadAPIConfig{
			Endpoint:     cfg.OCR.AzureEndpoint,
			APIKey:       cfg.OCR.AzureKey,
			MinChars:     ex.ReadMinChars,
			PollAttempts: cfg.OCR.AzurePollAttempts,
			PollInterval: cfg.OCR.AzurePollInterval,
			Timeout:      cfg.OCR.Timeout,
		}, logger),
		NewLocalOCRStrategy(cfg.OCR.TesseractEnabled, cfg.OCR.TesseractPath, cfg.OCR.TesseractLang, ex.LocalOCRMinChars),
		NewVisionFallbackStrategy(system, ex.FallbackMinChars, logger),
	}
}

// New builds a cascade from configuration. Options replace collaborators.
func New(cfg *config.Config, system ProviderSource, opts ...Option) *Cascade {
	c := &Cascade{
		cfg:        cfg.Extraction,
		pdfText:    EmbeddedText{},
		raster:     FitzRasterizer{},
		scratchDir: cfg.Scratch.Dir,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.strategies == nil {
		c.strategies = DefaultStrategies(cfg, system, c.logger)
	}
	return c
}

// Extract turns doc into text. Provider and strategy failures only degrade the
// result; an error is returned only when the scratch workspace cannot be set up
// or ctx is cancelled. The workspace is gone when Extract returns.
func (c *Cascade) Extract(ctx context.Context, doc Document, adHoc []llm.Provider) (Result, error) {
	kind := doc.Kind()
	log := c.logger.With("file", doc.Name, "kind", kind)

	var (
		res Result
		err error
	)
	switch kind {
	case DocText:
		text, method := decodeText(doc.Data)
		res = Result{Text: text, Method: method}
	case DocUnknown:
		text, method := decodeUnknown(doc.Data)
		res = Result{Text: text, Method: method}
	default:
		res, err = c.extractFile(ctx, doc, kind, adHoc)
		if err != nil {
			return Result{}, err
		}
	}

	res.Chars = charCount(res.Text)
	log.Info("extraction finished", "method", res.Method, "chars", res.Chars, "attempts", len(res.Attempts))
	return res, nil
}

func (c *Cascade) extractFile(ctx context.Context, doc Document, kind DocKind, adHoc []llm.Provider) (Result, error) {
	ws, err := newWorkspace(c.scratchDir)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			c.logger.Error("remove workspace", "dir", ws.dir, "error", err)
		}
	}()

	path, err := ws.store(doc.Name, doc.ContentType, doc.Data)
	if err != nil {
		return Result{}, err
	}

	if kind == DocPDF {
		return c.extractPDF(ctx, ws, path, adHoc)
	}

	page, attempts, err := c.extractPage(ctx, ws, PageInput{Path: path, Number: 1, AdHoc: adHoc})
	if err != nil {
		return Result{}, err
	}
	return Result{Text: page.Text, Method: page.Method, Pages: []PageResult{page}, Attempts: attempts}, nil
}

// extractPage is the per-page state machine. It always produces a page
// result; only ctx cancellation is returned as an error.
func (c *Cascade) extractPage(ctx context.Context, ws *workspace, in PageInput) (PageResult, []Attempt, error) {
	var attempts []Attempt
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return PageResult{}, attempts, err
		}
		if !s.Ready(in) {
			continue
		}
		if err := ws.touch(); err != nil {
			c.logger.Warn("touch workspace", "dir", ws.dir, "error", err)
		}

		start := time.Now()
		text, err := s.Attempt(ctx, in)
		a := Attempt{
			Method:   s.Method(),
			Page:     in.Number,
			Chars:    charCount(text),
			Accepted: err == nil && passes(text, s.MinChars()),
			Elapsed:  time.Since(start),
		}
		if err != nil {
			a.Err = err.Error()
		} else if !a.Accepted {
			a.Err = ErrInsufficientQuality.Error()
		}
		attempts = append(attempts, a)
		c.logger.Info("extraction attempt",
			"method", a.Method,
			"page", a.Page,
			"accepted", a.Accepted,
			"chars", a.Chars,
			"elapsed", a.Elapsed,
			"error", a.Err,
		)

		if a.Accepted {
			return PageResult{Number: in.Number, Text: strings.TrimSpace(text), Method: s.Method(), Accepted: true}, attempts, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return PageResult{}, attempts, err
	}
	return PageResult{Number: in.Number, Text: PlaceholderImageFailed, Method: MethodImageFailed}, attempts, nil
}

func (c *Cascade) extractPDF(ctx context.Context, ws *workspace, path string, adHoc []llm.Provider) (Result, error) {
	direct, err := c.pdfText.Text(path)
	if err != nil {
		c.logger.Warn("direct PDF text extraction failed", "error", err)
	}
	if passes(direct, c.cfg.DirectPDFMinChars) {
		return Result{Text: strings.TrimSpace(direct), Method: MethodDirectPDF}, nil
	}

	doc, err := c.raster.Open(path)
	if err != nil {
		c.logger.Warn("PDF rasterization failed", "error", err)
		return Result{Text: PlaceholderPDFFailed, Method: MethodPDFFailed}, nil
	}
	defer doc.Close()

	n := doc.PageCount()
	if n > c.cfg.MaxPDFPages {
		n = c.cfg.MaxPDFPages
	}

	var (
		res    Result
		blocks []string
	)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		imgPath := ws.path(fmt.Sprintf("page-%d.png", i))
		if err := doc.RenderPNG(i, c.cfg.PDFDPI, imgPath); err != nil {
			c.logger.Warn("render PDF page", "page", i, "error", err)
			continue
		}

		page, attempts, err := c.extractPage(ctx, ws, PageInput{Path: imgPath, Number: i, AdHoc: adHoc})
		_ = os.Remove(imgPath)
		res.Attempts = append(res.Attempts, attempts...)
		if err != nil {
			return Result{}, err
		}

		contributes := page.Accepted && passes(page.Text, c.cfg.PageMinChars)
		page.Accepted = contributes
		res.Pages = append(res.Pages, page)
		if contributes {
			blocks = append(blocks, fmt.Sprintf("--- Page %d ---\n%s", i, page.Text))
		}
	}

	if len(blocks) == 0 {
		res.Text, res.Method = PlaceholderPDFFailed, MethodPDFFailed
		return res, nil
	}
	res.Text, res.Method = strings.Join(blocks, "\n\n"), MethodRasterizedPDF
	return res, nil
}

// StrategyStatus reports whether a strategy can run with system credentials.
type StrategyStatus struct {
	Method   Method `json:"method"`
	Ready    bool   `json:"ready"`
	MinChars int    `json:"min_chars"`
}

func (c *Cascade) Status() []StrategyStatus {
	out := make([]StrategyStatus, 0, len(c.strategies))
	for _, s := range c.strategies {
		out = append(out, StrategyStatus{Method: s.Method(), Ready: s.Ready(PageInput{}), MinChars: s.MinChars()})
	}
	return out
}
