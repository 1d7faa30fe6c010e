package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/docintake/internal/models"
)

// DefaultHistoryLimit caps history listings.
const DefaultHistoryLimit = 100

type Analyses struct {
	db *pgxpool.Pool
}

func NewAnalyses(db *pgxpool.Pool) *Analyses {
	return &Analyses{db: db}
}

func (s *Analyses) Save(ctx context.Context, a *models.Analysis) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO analyses (id, user_id, file_name, file_type, analysis_result, analysis_language, llm_provider)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		a.ID, a.UserID, a.FileName, a.FileKind, a.Result, a.Language, a.LLMProvider,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// ListByUser returns the user's analyses, newest first.
func (s *Analyses) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Analysis, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, file_name, file_type, analysis_result, analysis_language, llm_provider, created_at
		 FROM analyses WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []models.Analysis
	for rows.Next() {
		var a models.Analysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.FileName, &a.FileKind, &a.Result, &a.Language, &a.LLMProvider, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Analyses) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count analyses: %w", err)
	}
	return n, nil
}
