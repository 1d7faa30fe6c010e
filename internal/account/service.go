package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docintake/internal/analysis"
	"github.com/nikhilbhutani/docintake/internal/auth"
	"github.com/nikhilbhutani/docintake/internal/llm"
	"github.com/nikhilbhutani/docintake/internal/models"
)

var ErrSignInFailed = errors.New("google authentication failed")

// InvalidKeyError names the key slot that failed its credential test.
type InvalidKeyError struct {
	Slot int
	Kind llm.Kind
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("Invalid API Key %d", e.Slot)
}

type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Upsert(ctx context.Context, u *models.User) (*models.User, error)
	UpdateAPIKeys(ctx context.Context, id uuid.UUID, k models.APIKeys) error
	UpdateLanguage(ctx context.Context, id uuid.UUID, lang string) error
}

type CredentialTester interface {
	TestCredential(ctx context.Context, kind, secret string) bool
}

// VerdictMemo caches credential test results. cache.CredentialMemo satisfies
// it.
type VerdictMemo interface {
	Verdict(ctx context.Context, kind, secret string) (valid, ok bool, err error)
	Remember(ctx context.Context, kind, secret string, valid bool) error
}

type TokenIssuer interface {
	Issue(userID uuid.UUID, email string) (string, error)
}

type Service struct {
	verifier auth.IdentityVerifier
	issuer   TokenIssuer
	users    UserStore
	tester   CredentialTester
	memo     VerdictMemo
	logger   *slog.Logger
}

func NewService(verifier auth.IdentityVerifier, issuer TokenIssuer, users UserStore, tester CredentialTester, memo VerdictMemo, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{verifier: verifier, issuer: issuer, users: users, tester: tester, memo: memo, logger: logger}
}

type SignInResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        models.Profile `json:"user"`
}

// SignIn verifies a Google ID token, creates or refreshes the user and issues
// a session token.
func (s *Service) SignIn(ctx context.Context, idToken string) (*SignInResult, error) {
	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		s.logger.Warn("identity verification failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}

	user, err := s.users.Upsert(ctx, &models.User{
		ID:                uuid.New(),
		Email:             id.Email,
		Name:              id.Name,
		Picture:           id.Picture,
		OAuthProvider:     "Google",
		GoogleID:          id.Subject,
		PreferredLanguage: analysis.LangEnglish,
	})
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	token, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in", "user_id", user.ID)
	return &SignInResult{AccessToken: token, TokenType: "bearer", User: user.Profile()}, nil
}

func (s *Service) Profile(ctx context.Context, id uuid.UUID) (models.Profile, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return u.Profile(), nil
}

// KeyUpdate carries new provider keys. Empty fields leave the stored key
// untouched.
type KeyUpdate struct {
	Gemini    string
	OpenAI    string
	Anthropic string
}

type keySlot struct {
	slot   int
	kind   llm.Kind
	secret string
	set    func(k *models.APIKeys, v string)
}

// UpdateAPIKeys tests every supplied key and stores them only when all pass.
// It returns the labels of the updated slots.
func (s *Service) UpdateAPIKeys(ctx context.Context, u *models.User, upd KeyUpdate) ([]string, error) {
	slots := []keySlot{
		{1, llm.KindGemini, upd.Gemini, func(k *models.APIKeys, v string) { k.Gemini = v }},
		{2, llm.KindOpenAI, upd.OpenAI, func(k *models.APIKeys, v string) { k.OpenAI = v }},
		{3, llm.KindAnthropic, upd.Anthropic, func(k *models.APIKeys, v string) { k.Anthropic = v }},
	}

	var (
		keys    models.APIKeys
		updated = []string{}
	)
	for _, sl := range slots {
		if sl.secret == "" {
			continue
		}
		if !s.credentialValid(ctx, sl.kind, sl.secret) {
			return nil, &InvalidKeyError{Slot: sl.slot, Kind: sl.kind}
		}
		sl.set(&keys, sl.secret)
		updated = append(updated, fmt.Sprintf("API Key %d (%s)", sl.slot, sl.kind.Title()))
	}

	if len(updated) == 0 {
		return updated, nil
	}
	if err := s.users.UpdateAPIKeys(ctx, u.ID, keys); err != nil {
		return nil, fmt.Errorf("store api keys: %w", err)
	}
	s.logger.Info("api keys updated", "user_id", u.ID, "slots", len(updated))
	return updated, nil
}

// credentialValid probes a credential at most once per memo lifetime. Memo
// failures fall through to a live probe.
func (s *Service) credentialValid(ctx context.Context, kind llm.Kind, secret string) bool {
	if s.memo != nil {
		valid, ok, err := s.memo.Verdict(ctx, string(kind), secret)
		if err != nil {
			s.logger.Warn("credential memo lookup failed", "provider", kind, "error", err)
		} else if ok {
			return valid
		}
	}

	valid := s.tester.TestCredential(ctx, string(kind), secret)
	if s.memo != nil {
		if err := s.memo.Remember(ctx, string(kind), secret, valid); err != nil {
			s.logger.Warn("credential memo store failed", "provider", kind, "error", err)
		}
	}
	return valid
}

func (s *Service) UpdateLanguage(ctx context.Context, id uuid.UUID, lang string) (string, error) {
	lang = analysis.NormalizeLanguage(lang)
	if err := s.users.UpdateLanguage(ctx, id, lang); err != nil {
		return "", fmt.Errorf("update language: %w", err)
	}
	return lang, nil
}
