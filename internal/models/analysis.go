package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Analysis is a persisted analysis record. Result holds the full response
// payload as returned to the client.
type Analysis struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	FileName    string          `json:"file_name" db:"file_name"`
	FileKind    string          `json:"file_type" db:"file_type"`
	Result      json.RawMessage `json:"analysis_result" db:"analysis_result"`
	Language    string          `json:"analysis_language" db:"analysis_language"`
	LLMProvider string          `json:"llm_provider" db:"llm_provider"`
	CreatedAt   time.Time       `json:"timestamp" db:"created_at"`
}
