package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

var (
	errReadFailed  = errors.New("read operation failed")
	errReadTimeout = errors.New("read operation timed out")
)

// ReadAPIStrategy runs the asynchronous Computer Vision Read API: submit the
// image, then poll the operation at a fixed interval for a bounded number of
// attempts. It only uses the system credential.
type ReadAPIStrategy struct {
	endpoint     string
	apiKey       string
	minChars     int
	pollAttempts int
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

type ReadAPIConfig struct {
	Endpoint     string
	APIKey       string
	MinChars     int
	PollAttempts int
	PollInterval time.Duration
	Timeout      time.Duration
}

func NewReadAPIStrategy(cfg ReadAPIConfig, logger *slog.Logger) *ReadAPIStrategy {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadAPIStrategy{
		endpoint:     strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		minChars:     cfg.MinChars,
		pollAttempts: cfg.PollAttempts,
		pollInterval: cfg.PollInterval,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
	}
}

func (s *ReadAPIStrategy) Method() Method { return MethodReadAPI }
func (s *ReadAPIStrategy) MinChars() int  { return s.minChars }

func (s *ReadAPIStrategy) Ready(PageInput) bool {
	return s.apiKey != "" && s.endpoint != ""
}

type readResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		ReadResults []struct {
			Page  int `json:"page"`
			Lines []struct {
				Text string `json:"text"`
			} `json:"lines"`
		} `json:"readResults"`
	} `json:"analyzeResult"`
}

func (s *ReadAPIStrategy) Attempt(ctx context.Context, in PageInput) (string, error) {
	opURL, err := s.submit(ctx, in.Path)
	if err != nil {
		return "", err
	}

	for attempt := 1; attempt <= s.pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}

		res, err := s.poll(ctx, opURL)
		if err != nil {
			return "", err
		}
		switch res.Status {
		case "succeeded":
			return joinReadLines(res), nil
		case "failed":
			return "", errReadFailed
		case "notStarted", "running":
			s.logger.Debug("read operation pending", "attempt", attempt, "status", res.Status)
		default:
			return "", fmt.Errorf("read operation status %q", res.Status)
		}
	}
	return "", errReadTimeout
}

func (s *ReadAPIStrategy) submit(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read page image: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/vision/v3.2/read/analyze", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("read api request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("read api submit: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("read api submit status %d", resp.StatusCode)
	}
	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", errors.New("read api: missing Operation-Location header")
	}
	return opURL, nil
}

func (s *ReadAPIStrategy) poll(ctx context.Context, opURL string) (*readResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, fmt.Errorf("read api poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("read api poll: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("read api poll status %d", resp.StatusCode)
	}
	var res readResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("read api decode: %w", err)
	}
	return &res, nil
}

// joinReadLines concatenates line texts in reading order: page by page, line
// by line.
func joinReadLines(res *readResult) string {
	var lines []string
	for _, page := range res.AnalyzeResult.ReadResults {
		for _, line := range page.Lines {
			lines = append(lines, line.Text)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
