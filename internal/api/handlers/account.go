package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docintake/internal/account"
	"github.com/nikhilbhutani/docintake/internal/auth"
	"github.com/nikhilbhutani/docintake/internal/models"
)

type AccountService interface {
	SignIn(ctx context.Context, idToken string) (*account.SignInResult, error)
	Profile(ctx context.Context, id uuid.UUID) (models.Profile, error)
	UpdateAPIKeys(ctx context.Context, u *models.User, upd account.KeyUpdate) ([]string, error)
	UpdateLanguage(ctx context.Context, id uuid.UUID, lang string) (string, error)
}

type AccountHandler struct {
	svc AccountService
}

func NewAccountHandler(svc AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) GoogleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Credential string `json:"credential"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Credential == "" {
		writeError(w, http.StatusBadRequest, "credential required")
		return
	}

	res, err := h.svc.SignIn(r.Context(), req.Credential)
	switch {
	case errors.Is(err, account.ErrSignInFailed):
		writeError(w, http.StatusBadRequest, "google authentication failed")
		return
	case err != nil:
		slog.Error("sign in failed", "error", err)
		writeError(w, http.StatusInternalServerError, "sign in failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// apiKeysRequest accepts both the slot names and the vendor names; slot names
// win when both are sent.
type apiKeysRequest struct {
	APIKey1         string `json:"api_key_1"`
	APIKey2         string `json:"api_key_2"`
	APIKey3         string `json:"api_key_3"`
	GeminiAPIKey    string `json:"gemini_api_key"`
	OpenAIAPIKey    string `json:"openai_api_key"`
	AnthropicAPIKey string `json:"anthropic_api_key"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (h *AccountHandler) UpdateAPIKeys(w http.ResponseWriter, r *http.Request) {
	var req apiKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.svc.UpdateAPIKeys(r.Context(), auth.UserFromContext(r.Context()), account.KeyUpdate{
		Gemini:    firstNonEmpty(req.APIKey1, req.GeminiAPIKey),
		OpenAI:    firstNonEmpty(req.APIKey2, req.OpenAIAPIKey),
		Anthropic: firstNonEmpty(req.APIKey3, req.AnthropicAPIKey),
	})
	var invalid *account.InvalidKeyError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Error())
		return
	case err != nil:
		slog.Error("save api keys failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save API keys")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"message":      "API keys updated: " + strings.Join(updated, ", "),
		"updated_keys": updated,
	})
}

func (h *AccountHandler) UpdateLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lang, err := h.svc.UpdateLanguage(r.Context(), auth.UserIDFromContext(r.Context()), req.Language)
	if err != nil {
		slog.Error("update language failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update language")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "preferred_language": lang})
}
