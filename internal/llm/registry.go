package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilbhutani/docintake/internal/config"
)

const (
	LabelDemo  = "Demo"
	LabelError = "Error"

	credentialProbePrompt = "Say 'OK'"
)

// Factory builds an ad-hoc provider. The registry uses NewProvider unless a
// test swaps it.
type Factory func(kind Kind, model, secret string) Provider

// ProviderStatus describes one system provider for the status endpoint.
type ProviderStatus struct {
	Kind   Kind   `json:"kind"`
	Model  string `json:"model"`
	Active bool   `json:"active"`
}

// Registry owns the system providers, built once at startup, and fabricates
// ad-hoc providers from caller credentials.
type Registry struct {
	system  map[Kind]Provider
	factory Factory
	logger  *slog.Logger
}

type RegistryOption func(*Registry)

func WithFactory(f Factory) RegistryOption {
	return func(r *Registry) { r.factory = f }
}

func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry builds the system providers from configuration. A provider with
// an empty key is still registered but reports itself unavailable.
func NewRegistry(cfg config.LLMConfig, opts ...RegistryOption) *Registry {
	timeout := cfg.Timeout
	providers := []Provider{
		NewGeminiProvider(cfg.GeminiKey, cfg.GeminiModel, cfg.GeminiBaseURL, timeout),
		NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL),
		NewAnthropicProvider(cfg.AnthropicKey, cfg.AnthropicModel, cfg.AnthropicBaseURL),
	}
	return NewRegistryWith(providers, opts...)
}

// NewRegistryWith builds a registry over an explicit provider set, keyed by
// each provider's kind.
func NewRegistryWith(providers []Provider, opts ...RegistryOption) *Registry {
	r := &Registry{
		system:  make(map[Kind]Provider, len(providers)),
		factory: NewProvider,
		logger:  slog.Default(),
	}
	for _, p := range providers {
		r.system[p.Kind()] = p
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewProvider constructs a provider variant for kind with vendor default
// endpoints.
func NewProvider(kind Kind, model, secret string) Provider {
	switch kind {
	case KindGemini:
		return NewGeminiProvider(secret, model, "", 0)
	case KindOpenAI:
		return NewOpenAIProvider(secret, model, "")
	case KindAnthropic:
		return NewAnthropicProvider(secret, model, "")
	}
	return nil
}

// ListAvailable is an availability snapshot of every known kind.
func (r *Registry) ListAvailable() map[string]bool {
	out := make(map[string]bool, len(PriorityOrder))
	for _, k := range PriorityOrder {
		p, ok := r.system[k]
		out[string(k)] = ok && p.Available()
	}
	return out
}

func (r *Registry) Status() []ProviderStatus {
	out := make([]ProviderStatus, 0, len(PriorityOrder))
	for _, k := range PriorityOrder {
		p, ok := r.system[k]
		if !ok {
			out = append(out, ProviderStatus{Kind: k})
			continue
		}
		out = append(out, ProviderStatus{Kind: k, Model: p.Model(), Active: p.Available()})
	}
	return out
}

// Available returns the active system providers in priority order.
func (r *Registry) Available() []Provider {
	var out []Provider
	for _, k := range PriorityOrder {
		if p, ok := r.system[k]; ok && p.Available() {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) HasActive() bool {
	return len(r.Available()) > 0
}

// CreateAdHoc builds a provider from a caller credential. An empty model
// selects the default user model for the kind.
func (r *Registry) CreateAdHoc(kind, model, secret string) (Provider, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultUserModel(k)
	}
	p := r.factory(k, model, secret)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProviderKind, kind)
	}
	return p, nil
}

// Generate tries the system providers in priority order and returns the first
// non-empty answer with its provenance label. It never fails: exhaustion
// yields explanatory text labeled Demo or Error.
func (r *Registry) Generate(ctx context.Context, prompt string, image *Image) (string, string) {
	active := r.Available()
	if len(active) == 0 {
		return demoResponse, LabelDemo
	}

	for _, p := range active {
		start := time.Now()
		text, err := p.Generate(ctx, prompt, image)
		if err != nil {
			r.logger.Warn("provider generate failed",
				"provider", p.Kind(),
				"model", p.Model(),
				"elapsed", time.Since(start),
				"error", err,
			)
			continue
		}
		if strings.TrimSpace(text) == "" {
			r.logger.Warn("provider returned empty text", "provider", p.Kind())
			continue
		}
		r.logger.Info("provider generate succeeded", "provider", p.Kind(), "elapsed", time.Since(start))
		return text, SystemLabel(p.Kind())
	}
	return exhaustedResponse, LabelError
}

// TestCredential issues one trivial generate call. It consumes external quota,
// so callers should only probe a credential once per change.
func (r *Registry) TestCredential(ctx context.Context, kind, secret string) bool {
	if strings.TrimSpace(secret) == "" {
		return false
	}
	p, err := r.CreateAdHoc(kind, "", secret)
	if err != nil {
		return false
	}
	text, err := p.Generate(ctx, credentialProbePrompt, nil)
	if err != nil {
		r.logger.Info("credential test failed", "provider", kind, "error", err)
		return false
	}
	return strings.TrimSpace(text) != ""
}

// AdHocProvider pairs a caller-built provider with its provenance label.
type AdHocProvider struct {
	Provider
	Label string
}

// BuildAdHoc turns an ordered credential list into providers, keeping the
// caller's order. Unsupported kinds and empty secrets are skipped.
func (r *Registry) BuildAdHoc(creds []Credential) []AdHocProvider {
	out := make([]AdHocProvider, 0, len(creds))
	for _, c := range creds {
		if strings.TrimSpace(c.Secret) == "" {
			continue
		}
		p, err := r.CreateAdHoc(c.Kind, c.Model, c.Secret)
		if err != nil {
			r.logger.Warn("skipping caller credential", "provider", c.Kind, "error", err)
			continue
		}
		out = append(out, AdHocProvider{Provider: p, Label: UserLabel(p.Kind())})
	}
	return out
}

const demoResponse = `DEMO MODE: no AI provider is configured.

SUMMARY: This is a demonstration response. Configure GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY, or add your own API key in the profile, to receive a real analysis.

URGENCY: LOW`

const exhaustedResponse = `ANALYSIS UNAVAILABLE: every configured AI provider failed to answer.

SUMMARY: The document was received, but no provider produced an analysis. Please try again later or check your API keys.

URGENCY: MEDIUM`
