package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var ErrIdentityRejected = errors.New("identity token rejected")

// Identity is what a verified sign-in token asserts about the caller.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// GoogleVerifier validates Google ID tokens through the tokeninfo endpoint.
type GoogleVerifier struct {
	clientID   string
	endpoint   string
	httpClient *http.Client
}

func NewGoogleVerifier(clientID, endpoint string) *GoogleVerifier {
	if endpoint == "" {
		endpoint = "https://oauth2.googleapis.com/tokeninfo"
	}
	return &GoogleVerifier{
		clientID:   clientID,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type tokenInfo struct {
	Aud           string `json:"aud"`
	Iss           string `json:"iss"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrIdentityRejected)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, fmt.Errorf("create tokeninfo request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: tokeninfo status %d: %s", ErrIdentityRejected, resp.StatusCode, body)
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode tokeninfo: %w", err)
	}

	switch {
	case v.clientID != "" && info.Aud != v.clientID:
		return nil, fmt.Errorf("%w: audience mismatch", ErrIdentityRejected)
	case !googleIssuers[info.Iss]:
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrIdentityRejected, info.Iss)
	case info.Email == "" || info.Sub == "":
		return nil, fmt.Errorf("%w: missing email or subject", ErrIdentityRejected)
	case info.EmailVerified == "false":
		return nil, fmt.Errorf("%w: email not verified", ErrIdentityRejected)
	}

	return &Identity{Subject: info.Sub, Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}
