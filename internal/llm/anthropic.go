package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicProvider struct {
	client anthropic.Client
	apiKey string
	model  string
}

func NewAnthropicProvider(apiKey, model, baseURL string) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		apiKey: apiKey,
		model:  model,
	}
}

func (p *AnthropicProvider) Kind() Kind      { return KindAnthropic }
func (p *AnthropicProvider) Model() string   { return p.model }
func (p *AnthropicProvider) Available() bool { return p.apiKey != "" }

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string, image *Image) (string, error) {
	if !p.Available() {
		return "", ErrProviderUnavailable
	}

	var blocks []anthropic.ContentBlockParamUnion
	if image != nil {
		data, mimeType, err := image.encoded()
		if err != nil {
			return "", callFailed(KindAnthropic, err)
		}
		blocks = append(blocks, anthropic.NewImageBlockBase64(mimeType, data))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   4000,
		Temperature: anthropic.Float(0.1),
		System:      []anthropic.TextBlockParam{{Text: systemInstruction}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", callFailed(KindAnthropic, fmt.Errorf("anthropic messages: %w", err))
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", callFailed(KindAnthropic, ErrEmptyResponse)
	}
	return b.String(), nil
}
