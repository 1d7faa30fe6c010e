package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Email             string     `json:"email" db:"email"`
	Name              string     `json:"name" db:"name"`
	Picture           string     `json:"picture,omitempty" db:"picture"`
	OAuthProvider     string     `json:"oauth_provider" db:"oauth_provider"`
	GoogleID          string     `json:"-" db:"google_id"`
	PreferredLanguage string     `json:"preferred_language" db:"preferred_language"`
	Keys              APIKeys    `json:"-"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	LastLogin         *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// APIKeys are the user's own provider secrets. They are never serialized.
type APIKeys struct {
	Gemini    string `db:"gemini_api_key"`
	OpenAI    string `db:"openai_api_key"`
	Anthropic string `db:"anthropic_api_key"`
}

func (k APIKeys) Any() bool {
	return k.Gemini != "" || k.OpenAI != "" || k.Anthropic != ""
}

// Profile is the client-facing view of a user.
type Profile struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Picture           string    `json:"picture,omitempty"`
	PreferredLanguage string    `json:"preferred_language"`
	HasGeminiKey      bool      `json:"has_gemini_api_key"`
	HasOpenAIKey      bool      `json:"has_openai_api_key"`
	HasAnthropicKey   bool      `json:"has_anthropic_api_key"`
	CreatedAt         time.Time `json:"created_at"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Picture:           u.Picture,
		PreferredLanguage: u.PreferredLanguage,
		HasGeminiKey:      u.Keys.Gemini != "",
		HasOpenAIKey:      u.Keys.OpenAI != "",
		HasAnthropicKey:   u.Keys.Anthropic != "",
		CreatedAt:         u.CreatedAt,
	}
}
