package mock

import (
	"context"

	"github.com/poiesic/lexgraph/ai"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns a canned completion.
	CompleteFunc func(ctx context.Context, req ai.CompletionRequest) (string, error)

	callCount int
}

// NewMockChatModel creates a mock chat model with default canned behavior.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Complete returns a canned completion or delegates to CompleteFunc.
func (m *MockChatModel) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	m.callCount++

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}

	return "mock completion", nil
}

// CallCount returns the number of times Complete was called.
func (m *MockChatModel) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockChatModel) Reset() {
	m.callCount = 0
	m.CompleteFunc = nil
}
