package badger

import (
	"context"
	"testing"

	"github.com/poiesic/lexgraph/core"
	"github.com/poiesic/lexgraph/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()

	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestAddDocuments(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	t.Run("assigns content-based IDs and timestamps", func(t *testing.T) {
		docs, err := repo.AddDocuments(ctx,
			&core.Document{Title: "Employment Contract", Content: "terms of employment", DocType: "contract"},
			&core.Document{Title: "Court Ruling", Content: "the court finds", DocType: "ruling"},
		)
		require.NoError(t, err)
		require.Len(t, docs, 2)

		for _, doc := range docs {
			assert.NotZero(t, doc.Id)
			assert.False(t, doc.InsertedAt.IsZero())
			assert.Equal(t, doc.InsertedAt, doc.UpdatedAt)
		}
		assert.Equal(t, core.IDFromContent("terms of employment"), docs[0].Id)
	})

	t.Run("same content upserts the same record", func(t *testing.T) {
		first, err := repo.AddDocuments(ctx,
			&core.Document{Title: "Lease v1", Content: "lease agreement text"})
		require.NoError(t, err)

		second, err := repo.AddDocuments(ctx,
			&core.Document{Title: "Lease v2", Content: "lease agreement text"})
		require.NoError(t, err)

		assert.Equal(t, first[0].Id, second[0].Id)
		assert.Equal(t, first[0].InsertedAt, second[0].InsertedAt)

		got, err := repo.GetDocument(ctx, first[0].Id)
		require.NoError(t, err)
		assert.Equal(t, "Lease v2", got.Title)
	})

	t.Run("rejects invalid documents", func(t *testing.T) {
		_, err := repo.AddDocuments(ctx, &core.Document{Title: "no content"})
		assert.ErrorIs(t, err, core.ErrEmptyContent)
	})
}

func TestGetDocument(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	docs, err := repo.AddDocuments(ctx,
		&core.Document{Title: "Statute", Content: "statutory text"})
	require.NoError(t, err)

	t.Run("returns stored document", func(t *testing.T) {
		got, err := repo.GetDocument(ctx, docs[0].Id)
		require.NoError(t, err)
		assert.Equal(t, "Statute", got.Title)
		assert.Equal(t, "statutory text", got.Content)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := repo.GetDocument(ctx, core.ID(12345))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("GetDocuments skips missing", func(t *testing.T) {
		got, err := repo.GetDocuments(ctx, docs[0].Id, core.ID(12345))
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestDeleteDocuments(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	docs, err := repo.AddDocuments(ctx,
		&core.Document{Title: "Temp", Content: "temporary document"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDocuments(ctx, docs[0].Id))

	_, err = repo.GetDocument(ctx, docs[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = repo.DeleteDocuments(ctx, docs[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSearchKeyword(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	_, err := repo.AddDocuments(ctx,
		&core.Document{Title: "Employment Contract", Content: "termination clause and severance terms", DocType: "contract", Category: "employment"},
		&core.Document{Title: "Lease Agreement", Content: "rental termination conditions", DocType: "contract", Category: "real estate"},
		&core.Document{Title: "Privacy Ruling", Content: "data protection judgment", DocType: "ruling", Category: "privacy"},
	)
	require.NoError(t, err)

	t.Run("scores by query word coverage", func(t *testing.T) {
		matches, err := repo.SearchKeyword(ctx, "termination severance", core.Filters{}, 10)
		require.NoError(t, err)
		require.Len(t, matches, 2)

		assert.Equal(t, "Employment Contract", matches[0].Document.Title)
		assert.Equal(t, 1.0, matches[0].Score)
		assert.Equal(t, "Lease Agreement", matches[1].Document.Title)
		assert.Equal(t, 0.5, matches[1].Score)
	})

	t.Run("applies filters", func(t *testing.T) {
		matches, err := repo.SearchKeyword(ctx, "termination",
			core.Filters{Categories: []string{"employment"}}, 10)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "Employment Contract", matches[0].Document.Title)
	})

	t.Run("no overlap yields empty result", func(t *testing.T) {
		matches, err := repo.SearchKeyword(ctx, "maritime salvage", core.Filters{}, 10)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("respects limit", func(t *testing.T) {
		matches, err := repo.SearchKeyword(ctx, "termination", core.Filters{}, 1)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})
}

func TestFindSimilar(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	_, err := repo.AddDocuments(ctx,
		&core.Document{Title: "A", Content: "doc a", Vector: []float32{1, 0, 0}, DocType: "contract"},
		&core.Document{Title: "B", Content: "doc b", Vector: []float32{0.6, 0.8, 0}, DocType: "ruling"},
		&core.Document{Title: "C", Content: "doc c without vector"},
	)
	require.NoError(t, err)

	t.Run("orders by similarity", func(t *testing.T) {
		matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, core.Filters{}, 10)
		require.NoError(t, err)
		require.Len(t, matches, 2)

		assert.Equal(t, "A", matches[0].Document.Title)
		assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
		assert.Equal(t, "B", matches[1].Document.Title)
		assert.InDelta(t, 0.6, matches[1].Score, 1e-6)
	})

	t.Run("applies filters", func(t *testing.T) {
		matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0},
			core.Filters{DocTypes: []string{"ruling"}}, 10)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "B", matches[0].Document.Title)
	})
}
