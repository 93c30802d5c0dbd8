// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.ChatModel,
// ai.Reranker, and ai.Provider for use in unit tests. The mocks allow tests
// to run without external AI service dependencies and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockChat := mock.NewMockChatModel()
//	mockChat.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (string, error) {
//	    return "1. First point\n2. Second point", nil
//	}
//
//	// Check call counts
//	count := mockChat.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockChatModel: Returns a fixed canned completion
//   - MockReranker: Reports available and preserves input ordering
//   - MockProvider: Aggregates the three mocks above
package mock
