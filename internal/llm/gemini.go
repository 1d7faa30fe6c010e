package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxGeminiResponse = 10 << 20

type GeminiProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewGeminiProvider(apiKey, model, baseURL string, timeout time.Duration) *GeminiProvider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GeminiProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *GeminiProvider) Kind() Kind      { return KindGemini }
func (p *GeminiProvider) Model() string   { return p.model }
func (p *GeminiProvider) Available() bool { return p.apiKey != "" }

type geminiReq struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResp struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, image *Image) (string, error) {
	if !p.Available() {
		return "", ErrProviderUnavailable
	}

	parts := []geminiPart{{Text: prompt}}
	if image != nil {
		data, mimeType, err := image.encoded()
		if err != nil {
			return "", callFailed(KindGemini, err)
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{MimeType: mimeType, Data: data}})
	}

	gReq := geminiReq{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents:          []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig:  geminiGenConfig{Temperature: 0.1, MaxOutputTokens: 4000},
	}

	body, err := json.Marshal(gReq)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", callFailed(KindGemini, fmt.Errorf("gemini generate: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGeminiResponse))
	if err != nil {
		return "", callFailed(KindGemini, fmt.Errorf("read gemini response: %w", err))
	}

	var gResp geminiResp
	if err := json.Unmarshal(raw, &gResp); err != nil {
		return "", callFailed(KindGemini, fmt.Errorf("gemini decode (status %d): %w", resp.StatusCode, err))
	}
	if gResp.Error != nil {
		return "", callFailed(KindGemini, fmt.Errorf("gemini error [%d]: %s", gResp.Error.Code, gResp.Error.Message))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", callFailed(KindGemini, fmt.Errorf("gemini status %d", resp.StatusCode))
	}

	var b strings.Builder
	for _, c := range gResp.Candidates {
		for _, part := range c.Content.Parts {
			b.WriteString(part.Text)
		}
		if b.Len() > 0 {
			break
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", callFailed(KindGemini, ErrEmptyResponse)
	}
	return b.String(), nil
}
