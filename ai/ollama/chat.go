package ollama

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/lexgraph/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
)

// ChatModel implements ai.ChatModel against the native Ollama API.
type ChatModel struct {
	client      llms.Model
	temperature float64
	maxTokens   int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

func newChatModel(client llms.Model, config *ai.Config) *ChatModel {
	return &ChatModel{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		maxAttempts: config.MaxAttempts,
		baseDelay:   config.RetryBaseDelay,
		logger:      slog.Default().With("component", "ollama-chat"),
	}
}

// Complete generates a chat completion, retrying transient failures with
// bounded exponential backoff.
func (m *ChatModel) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	content := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.System != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, msg := range req.Messages {
		role := llms.ChatMessageTypeHuman
		switch msg.Role {
		case ai.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case ai.RoleAssistant:
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, msg.Content))
	}

	temperature := m.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	opts := []llms.CallOption{llms.WithTemperature(temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	} else if m.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(m.maxTokens))
	}

	var out string
	err := ai.RetryWithBackoff(ctx, func() error {
		response, err := m.client.GenerateContent(ctx, content, opts...)
		if err != nil {
			m.logger.Error("failed to generate completion", "err", err)
			return err
		}
		if len(response.Choices) < 1 {
			return ai.ErrEmptyCompletion
		}
		out = response.Choices[0].Content
		return nil
	}, m.maxAttempts, m.baseDelay)
	if err != nil {
		return "", err
	}
	return out, nil
}

// Embedder implements ai.Embedder using Ollama's embedding endpoint.
type Embedder struct {
	embedder    embeddings.Embedder
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

func newEmbedder(embedder embeddings.Embedder, config *ai.Config) *Embedder {
	return &Embedder{
		embedder:    embedder,
		maxAttempts: config.MaxAttempts,
		baseDelay:   config.RetryBaseDelay,
		logger:      slog.Default().With("component", "ollama-embedder"),
	}
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = e.embedder.EmbedDocuments(ctx, texts)
		return embedErr
	}, e.maxAttempts, e.baseDelay)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}
