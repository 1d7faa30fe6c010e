package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RemoteOCRStrategy submits the page to the OCR.space parse endpoint. It only
// uses the system credential; caller keys do not apply here.
type RemoteOCRStrategy struct {
	url        string
	apiKey     string
	language   string
	minChars   int
	httpClient *http.Client
}

func NewRemoteOCRStrategy(url, apiKey, language string, minChars int, timeout time.Duration) *RemoteOCRStrategy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteOCRStrategy{
		url:        url,
		apiKey:     apiKey,
		language:   language,
		minChars:   minChars,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *RemoteOCRStrategy) Method() Method       { return MethodRemoteOCR }
func (s *RemoteOCRStrategy) MinChars() int        { return s.minChars }
func (s *RemoteOCRStrategy) Ready(PageInput) bool { return s.apiKey != "" }

type ocrSpaceResponse struct {
	OCRExitCode   int `json:"OCRExitCode"`
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

func (s *RemoteOCRStrategy) Attempt(ctx context.Context, in PageInput) (string, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return "", fmt.Errorf("read page image: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"apikey":            s.apiKey,
		"language":          s.language,
		"isOverlayRequired": "false",
		"detectOrientation": "true",
		"scale":             "true",
		"OCREngine":         "2",
		"isTable":           "true",
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return "", fmt.Errorf("write form field: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(in.Path))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, &body)
	if err != nil {
		return "", fmt.Errorf("ocr.space request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr.space call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ocr.space status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ocr.space decode: %w", err)
	}
	if out.OCRExitCode != 1 || len(out.ParsedResults) == 0 {
		return "", fmt.Errorf("ocr.space exit code %d: %s", out.OCRExitCode, string(out.ErrorMessage))
	}
	return strings.TrimSpace(out.ParsedResults[0].ParsedText), nil
}
