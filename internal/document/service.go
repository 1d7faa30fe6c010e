package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docintake/internal/analysis"
	"github.com/nikhilbhutani/docintake/internal/extraction"
	"github.com/nikhilbhutani/docintake/internal/llm"
	"github.com/nikhilbhutani/docintake/internal/models"
)

// ErrNoProviders rejects an upload when neither the caller nor the system has
// any provider configured.
var ErrNoProviders = errors.New("no API keys configured, add your API keys in the profile")

type Extractor interface {
	Extract(ctx context.Context, doc extraction.Document, adHoc []llm.Provider) (extraction.Result, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) (*analysis.Result, error)
}

type Providers interface {
	BuildAdHoc(creds []llm.Credential) []llm.AdHocProvider
	HasActive() bool
}

type AnalysisStore interface {
	Save(ctx context.Context, a *models.Analysis) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Analysis, error)
}

type Service struct {
	extractor Extractor
	analyzer  Analyzer
	providers Providers
	store     AnalysisStore
	logger    *slog.Logger
}

func NewService(extractor Extractor, analyzer Analyzer, providers Providers, store AnalysisStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{extractor: extractor, analyzer: analyzer, providers: providers, store: store, logger: logger}
}

type UploadRequest struct {
	FileName    string
	ContentType string
	Data        []byte
	Language    string
	Owner       *models.User
	// Credentials override the owner's stored keys when set. Highest
	// preference first.
	Credentials []llm.Credential
}

type Response struct {
	ID               uuid.UUID         `json:"id"`
	FileName         string            `json:"file_name"`
	FileKind         string            `json:"file_type"`
	Language         string            `json:"analysis_language"`
	ExtractedText    string            `json:"extracted_text"`
	ProcessingMethod extraction.Method `json:"processing_method"`
	ExtractedChars   int               `json:"extracted_chars"`
	Analysis         *analysis.Result  `json:"analysis"`
	UrgencyLevel     analysis.Urgency  `json:"urgency_level"`
	LLMProvider      string            `json:"llm_provider"`
	CreatedAt        time.Time         `json:"timestamp"`
}

// CredentialsFor lists the user's stored keys in provider priority order.
func CredentialsFor(u *models.User) []llm.Credential {
	if u == nil {
		return nil
	}
	var creds []llm.Credential
	if u.Keys.Gemini != "" {
		creds = append(creds, llm.Credential{Kind: string(llm.KindGemini), Secret: u.Keys.Gemini})
	}
	if u.Keys.OpenAI != "" {
		creds = append(creds, llm.Credential{Kind: string(llm.KindOpenAI), Secret: u.Keys.OpenAI})
	}
	if u.Keys.Anthropic != "" {
		creds = append(creds, llm.Credential{Kind: string(llm.KindAnthropic), Secret: u.Keys.Anthropic})
	}
	return creds
}

// Analyze runs extraction and analysis for one upload and persists the
// result. Exhausted providers degrade the content but still return a
// response; only setup failures and persistence errors are returned.
func (s *Service) Analyze(ctx context.Context, req UploadRequest) (*Response, error) {
	creds := req.Credentials
	if len(creds) == 0 {
		creds = CredentialsFor(req.Owner)
	}
	adHoc := s.providers.BuildAdHoc(creds)
	if len(adHoc) == 0 && !s.providers.HasActive() {
		return nil, ErrNoProviders
	}

	lang := analysis.NormalizeLanguage(req.Language)
	doc := extraction.Document{Name: req.FileName, ContentType: req.ContentType, Data: req.Data}

	vision := make([]llm.Provider, len(adHoc))
	for i, p := range adHoc {
		vision[i] = p.Provider
	}

	start := time.Now()
	extracted, err := s.extractor.Extract(ctx, doc, vision)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	result, err := s.analyzer.Analyze(ctx, analysis.Input{
		Text:     extracted.Text,
		Language: lang,
		FileName: req.FileName,
		AdHoc:    adHoc,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze text: %w", err)
	}

	resp := &Response{
		ID:               uuid.New(),
		FileName:         req.FileName,
		FileKind:         string(doc.Kind()),
		Language:         lang,
		ExtractedText:    extracted.Text,
		ProcessingMethod: extracted.Method,
		ExtractedChars:   extracted.Chars,
		Analysis:         result,
		UrgencyLevel:     result.Urgency,
		LLMProvider:      result.LLMProvider,
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	record := &models.Analysis{
		ID:          resp.ID,
		FileName:    resp.FileName,
		FileKind:    resp.FileKind,
		Result:      payload,
		Language:    lang,
		LLMProvider: resp.LLMProvider,
	}
	if req.Owner != nil {
		record.UserID = &req.Owner.ID
	}
	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	resp.CreatedAt = record.CreatedAt

	s.logger.Info("document analyzed",
		"analysis_id", resp.ID,
		"kind", resp.FileKind,
		"method", resp.ProcessingMethod,
		"provider", resp.LLMProvider,
		"duration", time.Since(start),
	)
	return resp, nil
}

func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]models.Analysis, error) {
	list, err := s.store.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("analysis history: %w", err)
	}
	if list == nil {
		list = []models.Analysis{}
	}
	return list, nil
}
