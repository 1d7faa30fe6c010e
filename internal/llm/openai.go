package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	client *openai.Client
	apiKey string
	model  string
}

func NewOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		apiKey: apiKey,
		model:  model,
	}
}

func (p *OpenAIProvider) Kind() Kind      { return KindOpenAI }
func (p *OpenAIProvider) Model() string   { return p.model }
func (p *OpenAIProvider) Available() bool { return p.apiKey != "" }

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, image *Image) (string, error) {
	if !p.Available() {
		return "", ErrProviderUnavailable
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if image == nil {
		user.Content = prompt
	} else {
		url, err := image.dataURL()
		if err != nil {
			return "", callFailed(KindOpenAI, err)
		}
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    url,
					Detail: openai.ImageURLDetailHigh,
				},
			},
		}
	}

	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			user,
		},
		MaxTokens:   4000,
		Temperature: 0.1,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", callFailed(KindOpenAI, fmt.Errorf("openai chat: %w", err))
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", callFailed(KindOpenAI, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
