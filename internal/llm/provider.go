package llm

import (
	"context"
	"fmt"
	"strings"
)

// Kind identifies one of the supported vendor variants.
type Kind string

const (
	KindGemini    Kind = "gemini"
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
)

// PriorityOrder is the order system providers are tried in: cheapest and
// fastest first. Do not sort it.
var PriorityOrder = []Kind{KindGemini, KindOpenAI, KindAnthropic}

// ParseKind normalizes a caller-supplied provider name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindGemini, KindOpenAI, KindAnthropic:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProviderKind, s)
}

// Title is the human-facing vendor name used in provenance labels.
func (k Kind) Title() string {
	switch k {
	case KindGemini:
		return "Gemini"
	case KindOpenAI:
		return "OpenAI"
	case KindAnthropic:
		return "Anthropic"
	}
	return string(k)
}

// Provider wraps one text/vision generation capability.
type Provider interface {
	Kind() Kind
	Model() string
	// Available reports whether a credential is configured. It never touches
	// the network.
	Available() bool
	// Generate sends prompt, and image when non-nil, and returns the model's
	// text. Any error means the provider produced nothing usable.
	Generate(ctx context.Context, prompt string, image *Image) (string, error)
}

// Credential is a caller-supplied (bring-your-own-key) provider definition.
type Credential struct {
	Kind   string `json:"kind"`
	Model  string `json:"model,omitempty"`
	Secret string `json:"-"`
}

const systemInstruction = "You are a helpful assistant for analyzing German official letters."

// Default models used when a caller credential does not name one.
var userDefaultModels = map[Kind]string{
	KindGemini:    "gemini-2.0-flash",
	KindOpenAI:    "gpt-4o-mini",
	KindAnthropic: "claude-3-haiku-20240307",
}

// DefaultUserModel returns the model used for ad-hoc providers of kind k.
func DefaultUserModel(k Kind) string {
	return userDefaultModels[k]
}

// SystemLabel and UserLabel build the provenance strings recorded with an
// analysis.
func SystemLabel(k Kind) string { return k.Title() + " (System)" }
func UserLabel(k Kind) string   { return k.Title() + " (User API Key)" }
