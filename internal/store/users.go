package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/docintake/internal/models"
)

type Users struct {
	db *pgxpool.Pool
}

func NewUsers(db *pgxpool.Pool) *Users {
	return &Users{db: db}
}

const userColumns = `id, email, name, picture, oauth_provider, google_id, preferred_language,
	gemini_api_key, openai_api_key, anthropic_api_key, created_at, last_login`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.OAuthProvider, &u.GoogleID, &u.PreferredLanguage,
		&u.Keys.Gemini, &u.Keys.OpenAI, &u.Keys.Anthropic, &u.CreatedAt, &u.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Users) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Upsert inserts the user or, when the email already exists, refreshes the
// identity fields and last login. Stored API keys and language are kept.
func (s *Users) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	out, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (id, email, name, picture, oauth_provider, google_id, preferred_language, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (email) DO UPDATE
		   SET name = EXCLUDED.name,
		       picture = EXCLUDED.picture,
		       google_id = EXCLUDED.google_id,
		       last_login = now()
		 RETURNING `+userColumns,
		u.ID, u.Email, u.Name, u.Picture, u.OAuthProvider, u.GoogleID, u.PreferredLanguage,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return out, nil
}

// UpdateAPIKeys overwrites only the non-empty keys in k.
func (s *Users) UpdateAPIKeys(ctx context.Context, id uuid.UUID, k models.APIKeys) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET
		   gemini_api_key    = COALESCE(NULLIF($2, ''), gemini_api_key),
		   openai_api_key    = COALESCE(NULLIF($3, ''), openai_api_key),
		   anthropic_api_key = COALESCE(NULLIF($4, ''), anthropic_api_key)
		 WHERE id = $1`,
		id, k.Gemini, k.OpenAI, k.Anthropic,
	)
	if err != nil {
		return fmt.Errorf("update api keys: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update api keys: %w", ErrNotFound)
	}
	return nil
}

func (s *Users) UpdateLanguage(ctx context.Context, id uuid.UUID, lang string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET preferred_language = $2 WHERE id = $1`, id, lang)
	if err != nil {
		return fmt.Errorf("update language: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update language: %w", ErrNotFound)
	}
	return nil
}

func (s *Users) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
