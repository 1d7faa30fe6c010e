package extraction

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG page"), 0o600))
	return path
}

func TestRemoteOCRStrategy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "ocr-key", r.FormValue("apikey"))
		assert.Equal(t, "2", r.FormValue("OCREngine"))
		_, _, err := r.FormFile("file")
		assert.NoError(t, err)
		_, _ = w.Write([]byte(`{"OCRExitCode":1,"ParsedResults":[{"ParsedText":"Sehr geehrte Damen und Herren\r\n"}]}`))
	}))
	defer srv.Close()

	s := NewRemoteOCRStrategy(srv.URL, "ocr-key", "auto", 10, time.Second)
	require.True(t, s.Ready(PageInput{}))

	text, err := s.Attempt(context.Background(), PageInput{Path: pageFile(t)})
	require.NoError(t, err)
	assert.Equal(t, "Sehr geehrte Damen und Herren", text)
}

func TestRemoteOCRStrategyErrorExit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"OCRExitCode":3,"IsErroredOnProcessing":true,"ErrorMessage":["Unable to recognize the file type"]}`))
	}))
	defer srv.Close()

	s := NewRemoteOCRStrategy(srv.URL, "ocr-key", "auto", 10, time.Second)
	_, err := s.Attempt(context.Background(), PageInput{Path: pageFile(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit code 3")
}

func readAPIServer(t *testing.T, statuses []string, polls *int32) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "read-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/vision/v3.2/read/analyze":
			w.Header().Set("Operation-Location", srv.URL+"/vision/v3.2/read/analyzeResults/op-1")
			w.WriteHeader(http.StatusAccepted)
		case r.Method == http.MethodGet:
			n := int(atomic.AddInt32(polls, 1))
			status := statuses[len(statuses)-1]
			if n <= len(statuses) {
				status = statuses[n-1]
			}
			body := `{"status":"` + status + `"}`
			if status == "succeeded" {
				body = `{"status":"succeeded","analyzeResult":{"readResults":[` +
					`{"page":1,"lines":[{"text":"Finanzamt Berlin"},{"text":"Steuerbescheid 2023"}]},` +
					`{"page":2,"lines":[{"text":"Seite 2"}]}]}}`
			}
			_, _ = w.Write([]byte(body))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return srv
}

func newReadStrategy(url string, attempts int) *ReadAPIStrategy {
	return NewReadAPIStrategy(ReadAPIConfig{
		Endpoint:     url + "/",
		APIKey:       "read-key",
		PollAttempts: attempts,
		PollInterval: time.Millisecond,
		Timeout:      time.Second,
	}, slog.Default())
}

func TestReadAPIStrategySucceeded(t *testing.T) {
	var polls int32
	srv := readAPIServer(t, []string{"notStarted", "running", "succeeded"}, &polls)
	defer srv.Close()

	text, err := newReadStrategy(srv.URL, 10).Attempt(context.Background(), PageInput{Path: pageFile(t)})
	require.NoError(t, err)
	assert.Equal(t, "Finanzamt Berlin\nSteuerbescheid 2023\nSeite 2", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestReadAPIStrategyTerminalStates(t *testing.T) {
	t.Run("failed", func(t *testing.T) {
		var polls int32
		srv := readAPIServer(t, []string{"running", "failed"}, &polls)
		defer srv.Close()

		text, err := newReadStrategy(srv.URL, 10).Attempt(context.Background(), PageInput{Path: pageFile(t)})
		assert.ErrorIs(t, err, errReadFailed)
		assert.Empty(t, text)
		assert.Equal(t, int32(2), atomic.LoadInt32(&polls))
	})

	t.Run("timed out", func(t *testing.T) {
		var polls int32
		srv := readAPIServer(t, []string{"running"}, &polls)
		defer srv.Close()

		_, err := newReadStrategy(srv.URL, 4).Attempt(context.Background(), PageInput{Path: pageFile(t)})
		assert.ErrorIs(t, err, errReadTimeout)
		assert.Equal(t, int32(4), atomic.LoadInt32(&polls))
	})

	t.Run("unknown status", func(t *testing.T) {
		var polls int32
		srv := readAPIServer(t, []string{"paused"}, &polls)
		defer srv.Close()

		_, err := newReadStrategy(srv.URL, 10).Attempt(context.Background(), PageInput{Path: pageFile(t)})
		assert.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&polls))
	})
}

func TestReadAPIStrategyHonorsCancellation(t *testing.T) {
	var polls int32
	srv := readAPIServer(t, []string{"running"}, &polls)
	defer srv.Close()

	s := NewReadAPIStrategy(ReadAPIConfig{Endpoint: srv.URL, APIKey: "read-key", PollAttempts: 10, PollInterval: time.Hour}, slog.Default())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Attempt(ctx, PageInput{Path: pageFile(t)})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
