package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/lexgraph/ai"
	"github.com/poiesic/lexgraph/ai/mock"
	"github.com/poiesic/lexgraph/core"
	"github.com/poiesic/lexgraph/storage"
	storagebadger "github.com/poiesic/lexgraph/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()

	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func seedDocuments(t *testing.T, repo storage.DocumentRepository) {
	t.Helper()

	_, err := repo.AddDocuments(context.Background(),
		&core.Document{Title: "Employment Contract", Content: "termination clause and severance terms",
			DocType: "contract", Category: "employment", Vector: []float32{1, 0, 0}},
		&core.Document{Title: "Lease Agreement", Content: "rental termination conditions",
			DocType: "contract", Category: "real estate", Vector: []float32{0.6, 0.8, 0}},
		&core.Document{Title: "Privacy Ruling", Content: "data protection judgment",
			DocType: "ruling", Category: "privacy", Vector: []float32{0, 0, 1}},
	)
	require.NoError(t, err)
}

// fixedEmbedder makes the vector branch deterministic.
func fixedEmbedder(vector []float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return embedder
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("hybrid run fuses both sources and assigns ranks", func(t *testing.T) {
		repo := setupRepo(t)
		seedDocuments(t, repo)

		reranker := mock.NewMockReranker()
		reranker.AvailableVal = false
		provider := mock.NewMockProviderWithServices(
			fixedEmbedder([]float32{1, 0, 0}), mock.NewMockChatModel(), reranker)

		pipeline, err := NewPipeline(repo, provider)
		require.NoError(t, err)

		results, advisory, err := pipeline.Run(ctx, "termination severance", core.Filters{}, 10)
		require.NoError(t, err)
		assert.Nil(t, advisory)
		require.NotEmpty(t, results)

		// Employment Contract hits on both branches: structured hits score
		// a flat 1.0 and the vector similarity is perfect.
		assert.Equal(t, "Employment Contract", results[0].Title)
		assert.Equal(t, core.SourceHybrid, results[0].Source)
		assert.InDelta(t, 1.0, results[0].FusedScore, 1e-6)

		for i, rec := range results {
			assert.Equal(t, i+1, rec.Rank)
		}
	})

	t.Run("reranker order is authoritative when available", func(t *testing.T) {
		repo := setupRepo(t)
		seedDocuments(t, repo)

		reranker := mock.NewMockReranker()
		reranker.RerankFunc = func(ctx context.Context, query string, docs []ai.RankedDocument, topK int) ([]ai.RankedDocument, error) {
			// Reverse the fused order with descending scores.
			out := make([]ai.RankedDocument, 0, len(docs))
			for i := len(docs) - 1; i >= 0; i-- {
				doc := docs[i]
				doc.Score = float64(len(docs) - i)
				out = append(out, doc)
			}
			return out, nil
		}
		provider := mock.NewMockProviderWithServices(
			fixedEmbedder([]float32{1, 0, 0}), mock.NewMockChatModel(), reranker)

		pipeline, err := NewPipeline(repo, provider)
		require.NoError(t, err)

		results, advisory, err := pipeline.Run(ctx, "termination severance", core.Filters{}, 10)
		require.NoError(t, err)
		assert.Nil(t, advisory)
		require.True(t, len(results) >= 2)

		assert.Equal(t, 1, reranker.CallCount())
		// Reversed order means the top fused hit is now last.
		assert.Equal(t, "Employment Contract", results[len(results)-1].Title)
		assert.Equal(t, 1, results[0].Rank)
	})

	t.Run("embedding failure degrades to structured-only partial result", func(t *testing.T) {
		repo := setupRepo(t)
		seedDocuments(t, repo)

		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding service down")
		}
		reranker := mock.NewMockReranker()
		reranker.AvailableVal = false
		provider := mock.NewMockProviderWithServices(embedder, mock.NewMockChatModel(), reranker)

		pipeline, err := NewPipeline(repo, provider)
		require.NoError(t, err)

		results, advisory, err := pipeline.Run(ctx, "termination", core.Filters{}, 10)
		require.NoError(t, err)
		require.NotNil(t, advisory)
		assert.Equal(t, core.ErrorPartial, advisory.Kind)
		assert.Equal(t, "search_vector", advisory.SourceStep)

		require.NotEmpty(t, results)
		for _, rec := range results {
			assert.Equal(t, core.SourceStructured, rec.Source)
		}
	})

	t.Run("structured hits score 1.0 regardless of keyword coverage", func(t *testing.T) {
		repo := setupRepo(t)
		seedDocuments(t, repo)

		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding service down")
		}
		reranker := mock.NewMockReranker()
		reranker.AvailableVal = false
		provider := mock.NewMockProviderWithServices(embedder, mock.NewMockChatModel(), reranker)

		pipeline, err := NewPipeline(repo, provider)
		require.NoError(t, err)

		// Lease Agreement matches only one of the two query words, yet a
		// keyword hit is a keyword hit: its score is 1.0 like any other.
		results, _, err := pipeline.Run(ctx, "termination severance", core.Filters{}, 10)
		require.NoError(t, err)
		require.Len(t, results, 2)

		titles := []string{results[0].Title, results[1].Title}
		assert.Contains(t, titles, "Employment Contract")
		assert.Contains(t, titles, "Lease Agreement")
		for _, rec := range results {
			assert.Equal(t, 1.0, rec.RawScore, rec.Title)
			assert.Equal(t, 1.0, rec.FusedScore, rec.Title)
		}
	})

	t.Run("both sources failing is fatal", func(t *testing.T) {
		repo := &failingRepo{}
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding service down")
		}
		provider := mock.NewMockProviderWithServices(embedder, mock.NewMockChatModel(), mock.NewMockReranker())

		pipeline, err := NewPipeline(repo, provider)
		require.NoError(t, err)

		_, _, err = pipeline.Run(ctx, "anything", core.Filters{}, 10)
		require.Error(t, err)

		var perr *core.PipelineError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, core.ErrorExternalService, perr.Info.Kind)
		assert.Equal(t, "fuse", perr.Info.SourceStep)
	})

	t.Run("empty query is rejected before any step runs", func(t *testing.T) {
		repo := setupRepo(t)
		provider := mock.NewMockProvider()

		pipeline, err := NewPipeline(repo, provider)
		require.NoError(t, err)

		_, _, err = pipeline.Run(ctx, "   ", core.Filters{}, 10)
		require.Error(t, err)

		var perr *core.PipelineError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, core.ErrorValidation, perr.Info.Kind)
	})

	t.Run("mid-run cancellation keeps the results fused so far", func(t *testing.T) {
		repo := setupRepo(t)
		seedDocuments(t, repo)

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		// Cancel from inside the rerank step: fuse has already populated
		// the results, so the failed run must still return them.
		reranker := mock.NewMockReranker()
		reranker.RerankFunc = func(ctx context.Context, query string, docs []ai.RankedDocument, topK int) ([]ai.RankedDocument, error) {
			cancel()
			return docs, nil
		}
		provider := mock.NewMockProviderWithServices(
			fixedEmbedder([]float32{1, 0, 0}), mock.NewMockChatModel(), reranker)

		pipeline, err := NewPipeline(repo, provider)
		require.NoError(t, err)

		results, advisory, err := pipeline.Run(runCtx, "termination severance", core.Filters{}, 10)
		require.Error(t, err)
		assert.Nil(t, advisory)

		var perr *core.PipelineError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, core.ErrorExternalService, perr.Info.Kind)
		assert.Contains(t, perr.Info.Message, "cancelled")

		require.NotEmpty(t, results)
		assert.Equal(t, "Employment Contract", results[0].Title)
	})

	t.Run("cancelled run fails with captured error", func(t *testing.T) {
		repo := setupRepo(t)
		seedDocuments(t, repo)
		provider := mock.NewMockProvider()

		pipeline, err := NewPipeline(repo, provider)
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err = pipeline.Run(cancelled, "termination", core.Filters{}, 10)
		require.Error(t, err)

		var perr *core.PipelineError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, core.ErrorExternalService, perr.Info.Kind)
		assert.Contains(t, perr.Info.Message, "cancelled")
	})

	t.Run("nil dependencies are rejected", func(t *testing.T) {
		_, err := NewPipeline(nil, mock.NewMockProvider())
		assert.ErrorIs(t, err, ErrRepositoryRequired)

		_, err = NewPipeline(setupRepo(t), nil)
		assert.ErrorIs(t, err, ErrProviderRequired)
	})
}

// failingRepo errors on every search path.
type failingRepo struct{}

func (r *failingRepo) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	return nil, errors.New("store down")
}

func (r *failingRepo) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	return nil, errors.New("store down")
}

func (r *failingRepo) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	return nil, errors.New("store down")
}

func (r *failingRepo) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return errors.New("store down")
}

func (r *failingRepo) SearchKeyword(ctx context.Context, query string, filters core.Filters, limit int) ([]*core.KeywordMatch, error) {
	return nil, errors.New("store down")
}

func (r *failingRepo) FindSimilar(ctx context.Context, vector []float32, filters core.Filters, limit int) ([]*core.VectorMatch, error) {
	return nil, errors.New("store down")
}

func (r *failingRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *failingRepo) Close() error { return nil }
