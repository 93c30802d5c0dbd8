package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch, in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation sent to a language model.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest describes a single language-model call.
type CompletionRequest struct {
	// System is an optional system prompt prepended to the conversation.
	System string

	Messages []Message

	// Temperature controls sampling randomness. Zero is deterministic-ish
	// and is what legal analysis wants.
	Temperature float64

	// MaxTokens caps the response length. Zero uses the backend default.
	MaxTokens int
}

// ChatModel produces text completions from a language model.
// Implementations must be thread-safe for concurrent use and must observe
// context cancellation on every call.
type ChatModel interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// RankedDocument is a document handed to (and returned by) a reranker.
type RankedDocument struct {
	Id      string
	Content string
	Score   float64
}

// Reranker reorders retrieved documents by relevance to a query.
// When unavailable, callers keep their existing order.
type Reranker interface {
	// Available reports whether the reranking backend can be used.
	Available() bool

	// Rerank returns the documents reordered (and truncated to topK) by
	// relevance. The returned order and scores are authoritative.
	Rerank(ctx context.Context, query string, docs []RankedDocument, topK int) ([]RankedDocument, error)
}

// Provider aggregates the AI services a pipeline run depends on.
// All returned services are safe for concurrent use by simultaneous runs.
type Provider interface {
	Embedder() Embedder
	ChatModel() ChatModel
	Reranker() Reranker

	// Close releases resources held by the provider and its services.
	Close() error
}
