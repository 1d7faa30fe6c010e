package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/docintake/internal/database"
	"github.com/nikhilbhutani/docintake/internal/models"
)

// testPool connects to TEST_DATABASE_URL and applies the migrations. Tests
// are skipped when it is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.RunMigrations(ctx, pool, "../../migrations"))
	return pool
}

func TestUsersUpsertKeepsKeys(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUsers(pool)

	email := uuid.NewString() + "@example.com"
	u, err := users.Upsert(ctx, &models.User{ID: uuid.New(), Email: email, Name: "Anna", OAuthProvider: "google", PreferredLanguage: "de"})
	require.NoError(t, err)

	require.NoError(t, users.UpdateAPIKeys(ctx, u.ID, models.APIKeys{Gemini: "g-key"}))
	require.NoError(t, users.UpdateAPIKeys(ctx, u.ID, models.APIKeys{OpenAI: "o-key"}))

	again, err := users.Upsert(ctx, &models.User{ID: uuid.New(), Email: email, Name: "Anna B.", OAuthProvider: "google", PreferredLanguage: "en"})
	require.NoError(t, err)

	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Anna B.", again.Name)
	assert.Equal(t, "de", again.PreferredLanguage)
	assert.Equal(t, models.APIKeys{Gemini: "g-key", OpenAI: "o-key"}, again.Keys)

	_, err = users.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalysesSaveAndList(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUsers(pool)
	analyses := NewAnalyses(pool)

	u, err := users.Upsert(ctx, &models.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Name: "B", OAuthProvider: "google", PreferredLanguage: "en"})
	require.NoError(t, err)

	for _, name := range []string{"first.pdf", "second.png"} {
		a := &models.Analysis{
			ID: uuid.New(), UserID: &u.ID, FileName: name, FileKind: "pdf",
			Result: json.RawMessage(`{"summary":"x"}`), Language: "en", LLMProvider: "Demo",
		}
		require.NoError(t, analyses.Save(ctx, a))
		assert.False(t, a.CreatedAt.IsZero())
	}

	list, err := analyses.ListByUser(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second.png", list[0].FileName)
}
