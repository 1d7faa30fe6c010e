package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/docintake/internal/account"
	"github.com/nikhilbhutani/docintake/internal/analysis"
	"github.com/nikhilbhutani/docintake/internal/api/handlers"
	"github.com/nikhilbhutani/docintake/internal/auth"
	"github.com/nikhilbhutani/docintake/internal/config"
	"github.com/nikhilbhutani/docintake/internal/document"
	"github.com/nikhilbhutani/docintake/internal/extraction"
	"github.com/nikhilbhutani/docintake/internal/llm"
	"github.com/nikhilbhutani/docintake/internal/models"
)

var testUser = &models.User{ID: uuid.New(), Email: "anna@example.com", Name: "Anna", PreferredLanguage: "de"}

type fakeDocuments struct {
	err  error
	last document.UploadRequest
}

func (f *fakeDocuments) Analyze(_ context.Context, req document.UploadRequest) (*document.Response, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &document.Response{
		FileName:         req.FileName,
		ExtractedText:    string(req.Data),
		ProcessingMethod: extraction.MethodTextFile,
		Analysis:         &analysis.Result{Summary: "ok"},
		LLMProvider:      "Gemini (System)",
	}, nil
}

func (f *fakeDocuments) History(context.Context, uuid.UUID) ([]models.Analysis, error) {
	return []models.Analysis{{ID: uuid.New(), FileName: "a.txt"}}, nil
}

type fakeAccounts struct {
	keys account.KeyUpdate
	err  error
}

func (f *fakeAccounts) SignIn(_ context.Context, token string) (*account.SignInResult, error) {
	if token != "good" {
		return nil, account.ErrSignInFailed
	}
	return &account.SignInResult{AccessToken: "jwt", TokenType: "bearer", User: testUser.Profile()}, nil
}

func (f *fakeAccounts) Profile(_ context.Context, id uuid.UUID) (models.Profile, error) {
	if id != testUser.ID {
		return models.Profile{}, errors.New("not found")
	}
	return testUser.Profile(), nil
}

func (f *fakeAccounts) UpdateAPIKeys(_ context.Context, _ *models.User, upd account.KeyUpdate) ([]string, error) {
	f.keys = upd
	if f.err != nil {
		return nil, f.err
	}
	return []string{"API Key 1 (Gemini)"}, nil
}

func (f *fakeAccounts) UpdateLanguage(_ context.Context, _ uuid.UUID, lang string) (string, error) {
	return analysis.NormalizeLanguage(lang), nil
}

type fakeStatus struct{}

func (fakeStatus) Status() []llm.ProviderStatus {
	return []llm.ProviderStatus{{Kind: llm.KindGemini, Model: "gemini-2.0-flash", Active: true}, {Kind: llm.KindOpenAI}}
}

type fakeExtraction struct{}

func (fakeExtraction) Status() []extraction.StrategyStatus {
	return []extraction.StrategyStatus{{Method: extraction.MethodVision, Ready: true, MinChars: 20}}
}

// testAuth admits requests carrying "Bearer test".
func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), testUser)))
	})
}

type fixture struct {
	handler  http.Handler
	docs     *fakeDocuments
	accounts *fakeAccounts
}

func newFixture(t *testing.T, checks map[string]handlers.Pinger) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{Server: config.ServerConfig{MaxUploadBytes: 64, CORSOrigins: []string{"*"}}}
	f := &fixture{docs: &fakeDocuments{}, accounts: &fakeAccounts{}}
	f.handler = NewRouter(cfg, Deps{
		Documents:    f.docs,
		Accounts:     f.accounts,
		Providers:    fakeStatus{},
		Extraction:   fakeExtraction{},
		Authenticate: testAuth,
		Checks:       checks,
	}).Setup(ctx)
	return f
}

func (f *fixture) do(req *http.Request, authed bool) *httptest.ResponseRecorder {
	if authed {
		req.Header.Set("Authorization", "Bearer test")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, name string, content []byte, language string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if language != "" {
		require.NoError(t, mw.WriteField("language", language))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze-file", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, map[string]handlers.Pinger{
		"database": handlers.PingFunc(func(context.Context) error { return nil }),
		"redis":    handlers.PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
	})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil), false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/readyz", nil), false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["database"])
	assert.Contains(t, checks["redis"], "unhealthy")
}

func TestAnalyzeFile(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(uploadRequest(t, "notes.txt", []byte("Zahlung bis 01.05.2024"), "de"), true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "text_file", body["processing_method"])
	assert.Equal(t, "Zahlung bis 01.05.2024", body["extracted_text"])
	assert.Equal(t, "de", f.docs.last.Language)
	assert.Equal(t, testUser.ID, f.docs.last.Owner.ID)
}

func TestAnalyzeFileDefaultsLanguage(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(uploadRequest(t, "notes.txt", []byte("hi"), ""), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "en", f.docs.last.Language)
}

func TestAnalyzeFileErrors(t *testing.T) {
	t.Run("requires auth", func(t *testing.T) {
		f := newFixture(t, nil)
		rec := f.do(uploadRequest(t, "a.txt", []byte("x"), ""), false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no providers", func(t *testing.T) {
		f := newFixture(t, nil)
		f.docs.err = document.ErrNoProviders
		rec := f.do(uploadRequest(t, "a.txt", []byte("x"), ""), true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec)["error"], "no API keys configured")
	})

	t.Run("too large", func(t *testing.T) {
		f := newFixture(t, nil)
		rec := f.do(uploadRequest(t, "a.txt", bytes.Repeat([]byte("x"), 100), ""), true)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		f := newFixture(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze-file", strings.NewReader("x"))
		req.Header.Set("Content-Type", "text/plain")
		rec := f.do(req, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("internal failure hides details", func(t *testing.T) {
		f := newFixture(t, nil)
		f.docs.err = errors.New("save analysis: connection refused")
		rec := f.do(uploadRequest(t, "a.txt", []byte("x"), ""), true)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "analysis failed", decode(t, rec)["error"])
	})
}

func TestAnalysisHistory(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/analysis-history", nil), true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

func TestGoogleVerify(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/google/verify", strings.NewReader(`{"credential":"good"}`)), false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "jwt", body["access_token"])
	assert.Equal(t, "anna@example.com", body["user"].(map[string]any)["email"])

	rec = f.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/google/verify", strings.NewReader(`{"credential":"forged"}`)), false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/google/verify", strings.NewReader(`{}`)), false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAPIKeysAcceptsBothFieldSets(t *testing.T) {
	f := newFixture(t, nil)

	body := `{"api_key_1":"new-gemini","gemini_api_key":"old-gemini","openai_api_key":"old-openai"}`
	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/api-keys", strings.NewReader(body)), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, account.KeyUpdate{Gemini: "new-gemini", OpenAI: "old-openai"}, f.accounts.keys)

	f.accounts.err = &account.InvalidKeyError{Slot: 2, Kind: llm.KindOpenAI}
	rec = f.do(httptest.NewRequest(http.MethodPost, "/api/v1/api-keys", strings.NewReader(body)), true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid API Key 2", decode(t, rec)["error"])
}

func TestProfileAndLanguage(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anna@example.com", decode(t, rec)["email"])

	rec = f.do(httptest.NewRequest(http.MethodPut, "/api/v1/profile/language", strings.NewReader(`{"language":"ua"}`)), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uk", decode(t, rec)["preferred_language"])
}

func TestStatusEndpointsArePublic(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/providers/status", nil), false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["active"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/extraction/status", nil), false)
	require.Equal(t, http.StatusOK, rec.Code)
	strategies := decode(t, rec)["strategies"].([]any)
	require.Len(t, strategies, 1)
	assert.Equal(t, "vision_extraction", strategies[0].(map[string]any)["method"])
}
