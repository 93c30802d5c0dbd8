package lexgraph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/lexgraph/ai"
	"github.com/poiesic/lexgraph/ai/mock"
	"github.com/poiesic/lexgraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAssistant(t *testing.T, opts ...AssistantOption) *Assistant {
	t.Helper()

	opts = append([]AssistantOption{WithInMemory(), WithProvider(mock.NewMockProvider())}, opts...)
	assistant, err := NewAssistant("", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { assistant.Close() })
	return assistant
}

func TestAssistantIngest(t *testing.T) {
	ctx := context.Background()
	assistant := setupAssistant(t)

	docs, err := assistant.Ingest(ctx,
		&core.Document{Title: "Employment Contract", Content: "termination clause and severance terms"},
		&core.Document{Title: "Lease Agreement", Content: "rental termination conditions"},
	)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	for _, doc := range docs {
		assert.NotZero(t, doc.Id)
		assert.NotEmpty(t, doc.Vector, "ingest must embed content")
	}

	t.Run("invalid document rejected before embedding", func(t *testing.T) {
		_, err := assistant.Ingest(ctx, &core.Document{Title: "no content"})
		assert.ErrorIs(t, err, core.ErrEmptyContent)
	})
}

func TestAssistantRetrieve(t *testing.T) {
	ctx := context.Background()
	assistant := setupAssistant(t)

	_, err := assistant.Ingest(ctx,
		&core.Document{Title: "Employment Contract", Content: "termination clause and severance terms"},
		&core.Document{Title: "Privacy Ruling", Content: "data protection judgment"},
	)
	require.NoError(t, err)

	results, advisory, err := assistant.Retrieve(ctx, "termination severance", core.Filters{}, 5)
	require.NoError(t, err)
	assert.Nil(t, advisory)
	require.NotEmpty(t, results)
	assert.Equal(t, "Employment Contract", results[0].Title)
	assert.Equal(t, 1, results[0].Rank)
}

func TestAssistantAnalyze(t *testing.T) {
	ctx := context.Background()

	chat := mock.NewMockChatModel()
	chat.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (string, error) {
		switch {
		case strings.Contains(req.System, "legal risk"):
			return "low", nil
		case strings.Contains(req.System, "entities"):
			return "People:\n- Jane Doe", nil
		}
		return "1. Item one\n2. Item two", nil
	}
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), chat, mock.NewMockReranker())

	assistant := setupAssistant(t, WithProvider(provider))

	result, advisory, err := assistant.Analyze(ctx, "sample contract text", core.ScopeFull)
	require.NoError(t, err)
	assert.Nil(t, advisory)
	require.NotNil(t, result)
	assert.Equal(t, core.RiskLow, result.Risk)
	assert.Equal(t, []string{"Item one", "Item two"}, result.KeyPoints)
}

func TestAssistantAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("retrieves then analyzes top hit", func(t *testing.T) {
		chat := mock.NewMockChatModel()
		var analyzed string
		chat.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (string, error) {
			if len(req.Messages) > 0 {
				analyzed = req.Messages[0].Content
			}
			switch {
			case strings.Contains(req.System, "legal risk"):
				return "high", nil
			case strings.Contains(req.System, "entities"):
				return "Organizations:\n- Acme Corp", nil
			}
			return "1. Point", nil
		}
		provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), chat, mock.NewMockReranker())
		assistant := setupAssistant(t, WithProvider(provider))

		_, err := assistant.Ingest(ctx,
			&core.Document{Title: "Employment Contract", Content: "termination clause and severance terms"})
		require.NoError(t, err)

		result, advisory, err := assistant.Ask(ctx, "termination severance", core.Filters{}, 5, core.ScopeFull)
		require.NoError(t, err)
		assert.Nil(t, advisory)
		require.NotNil(t, result)
		require.NotEmpty(t, result.Results)
		require.NotNil(t, result.Analysis)
		assert.Equal(t, core.RiskHigh, result.Analysis.Risk)
		assert.Equal(t, "termination clause and severance terms", analyzed)
	})

	t.Run("no hits yields empty result without analysis", func(t *testing.T) {
		assistant := setupAssistant(t)

		result, advisory, err := assistant.Ask(ctx, "nothing matches this", core.Filters{}, 5, core.ScopeFull)
		require.NoError(t, err)
		assert.Nil(t, advisory)
		require.NotNil(t, result)
		assert.Empty(t, result.Results)
		assert.Nil(t, result.Analysis)
	})

	t.Run("fatal retrieval error surfaces", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding down")
		}
		provider := mock.NewMockProviderWithServices(embedder, mock.NewMockChatModel(), mock.NewMockReranker())
		assistant := setupAssistant(t, WithProvider(provider))

		// Empty store plus failed embedding: structured finds nothing and
		// the vector branch errors, degrading to an empty partial result.
		result, advisory, err := assistant.Ask(ctx, "query", core.Filters{}, 5, core.ScopeFull)
		require.NoError(t, err)
		require.NotNil(t, advisory)
		assert.Equal(t, core.ErrorPartial, advisory.Kind)
		assert.Empty(t, result.Results)
	})
}
